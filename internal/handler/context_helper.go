package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-assessment-api/internal/middleware"
	"github.com/noah-isme/sma-assessment-api/internal/service"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
	"github.com/noah-isme/sma-assessment-api/pkg/response"
)

// actorFromContext derives the caller's capabilities from the JWT claims. It
// writes the error response itself and reports false when the request must stop.
func actorFromContext(c *gin.Context) (service.AuthorizationContext, bool) {
	actor, err := service.NewAuthorizationContext(middleware.Claims(c))
	if err != nil {
		response.Error(c, err)
		return service.AuthorizationContext{}, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return false
	}
	return true
}

func requiredQuery(c *gin.Context, names ...string) (map[string]string, bool) {
	values := make(map[string]string, len(names))
	var missing []string
	for _, name := range names {
		value := strings.TrimSpace(c.Query(name))
		if value == "" {
			missing = append(missing, name)
			continue
		}
		values[name] = value
	}
	if len(missing) > 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, strings.Join(missing, " and ")+" required"))
		return nil, false
	}
	return values, true
}

// splitList accepts both repeated and comma separated query values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func okJSON(c *gin.Context, data interface{}) {
	response.JSON(c, http.StatusOK, data, middleware.ResponseMeta(c))
}
