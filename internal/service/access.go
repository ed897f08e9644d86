package service

import (
	"github.com/noah-isme/sma-assessment-api/internal/models"
	appErrors "github.com/noah-isme/sma-assessment-api/pkg/errors"
)

// AuthorizationContext is the capability set of the acting user. Administrators
// may write on behalf of any teacher; teachers are restricted to their own id.
type AuthorizationContext struct {
	UserID              string
	Role                models.UserRole
	SchoolID            string
	CanWriteAnyTeacher  bool
	RestrictedTeacherID string
}

// NewAuthorizationContext derives capabilities from token claims.
func NewAuthorizationContext(claims *models.JWTClaims) (AuthorizationContext, error) {
	if claims == nil || claims.UserID == "" {
		return AuthorizationContext{}, appErrors.ErrUnauthorized
	}
	if claims.SchoolID == "" {
		return AuthorizationContext{}, appErrors.Clone(appErrors.ErrForbidden, "user is not attached to a school")
	}
	actor := AuthorizationContext{UserID: claims.UserID, Role: claims.Role, SchoolID: claims.SchoolID}
	switch {
	case claims.Role.IsAdministrative():
		actor.CanWriteAnyTeacher = true
	case claims.Role == models.RoleTeacher:
		if claims.TeacherID == "" {
			return AuthorizationContext{}, appErrors.Clone(appErrors.ErrForbidden, "teacher profile not linked to user")
		}
		actor.RestrictedTeacherID = claims.TeacherID
	}
	return actor, nil
}

// IsTeacherScoped reports whether writes must go through the teacher path.
func (a AuthorizationContext) IsTeacherScoped() bool {
	return !a.CanWriteAnyTeacher && a.RestrictedTeacherID != ""
}

// CanWrite reports whether the actor may write assessments at all.
func (a AuthorizationContext) CanWrite() bool {
	return a.CanWriteAnyTeacher || a.RestrictedTeacherID != ""
}

// KeyMode selects the assessment identity used on save.
func (a AuthorizationContext) KeyMode() models.AssessmentKeyMode {
	if a.IsTeacherScoped() {
		return models.AssessmentKeyWithTeacher
	}
	return models.AssessmentKeyStudentSubjectTerm
}

// SavePath labels the save path for metrics and logs.
func (a AuthorizationContext) SavePath() string {
	if a.IsTeacherScoped() {
		return "teacher"
	}
	return "admin"
}

func (a AuthorizationContext) ensureSchool(schoolID string) error {
	if schoolID != a.SchoolID {
		return appErrors.Clone(appErrors.ErrForbidden, "resource belongs to another school")
	}
	return nil
}
