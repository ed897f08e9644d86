package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-assessment-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-assessment-api/internal/middleware"
	"github.com/noah-isme/sma-assessment-api/internal/models"
)

type routeDeps struct {
	tokens      internalmiddleware.TokenValidator
	logger      *zap.Logger
	assessments *handler.AssessmentHandler
	results     *handler.ResultHandler
	grading     *handler.GradingHandler
	assignments *handler.TeacherAssignmentHandler
}

var (
	staffRoles = []string{string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleTeacher)}
	adminRoles = []string{string(models.RoleSuperAdmin), string(models.RoleAdmin)}
)

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	api.Use(internalmiddleware.JWT(deps.tokens))

	staff := internalmiddleware.RBAC(staffRoles...)
	admin := internalmiddleware.RBAC(adminRoles...)
	audit := func(action string) gin.HandlerFunc { return internalmiddleware.Audit(deps.logger, action) }

	assessments := api.Group("/assessments", staff)
	assessments.POST("", audit("assessments.save"), deps.assessments.Save)
	assessments.GET("/sheet", deps.assessments.Sheet)
	assessments.GET("/overview", deps.assessments.Overview)
	assessments.POST("/publish", audit("assessments.publish"), deps.assessments.Publish)
	assessments.GET("/teacher", deps.assessments.Teacher)

	results := api.Group("/results/class/:classTermId", staff)
	results.GET("", deps.results.ClassResults)
	results.GET("/students/:studentId", deps.results.StudentReport)
	results.GET("/export", deps.results.Export)

	grading := api.Group("/grading")
	grading.GET("/resolve", staff, deps.grading.Resolve)
	systems := grading.Group("/systems", admin)
	systems.GET("", deps.grading.List)
	systems.POST("", audit("grading.create"), deps.grading.Create)
	systems.PUT("/:id/levels", audit("grading.levels"), deps.grading.ReplaceLevels)
	systems.POST("/:id/default", audit("grading.default"), deps.grading.SetDefault)
	systems.DELETE("/:id", audit("grading.delete"), deps.grading.Delete)

	teachers := api.Group("/teachers/:id")
	teachers.GET("/assignments", internalmiddleware.RBAC(append(adminRoles, internalmiddleware.Self)...), deps.assignments.List)
	grants := teachers.Group("", admin)
	grants.POST("/subjects", audit("teachers.assign_subject"), deps.assignments.AssignSubject)
	grants.DELETE("/subjects/:grantId", audit("teachers.unassign_subject"), deps.assignments.UnassignSubject)
	grants.POST("/class-terms", audit("teachers.assign_class_term"), deps.assignments.AssignClassTerm)
	grants.DELETE("/class-terms/:grantId", audit("teachers.unassign_class_term"), deps.assignments.UnassignClassTerm)
}
