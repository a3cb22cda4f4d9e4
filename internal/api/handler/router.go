package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"civicledger/backend/internal/logger"
)

// NewRouter registers every route. metricsMW and metricsHandler may be nil.
func NewRouter(h *Handler, preview *RateLimiter, metricsMW gin.HandlerFunc, metricsHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.GinMiddleware(h.Log))
	if metricsMW != nil {
		r.Use(metricsMW)
	}

	r.GET("/health", h.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}
	r.GET("/uploads/*ref", h.ServeUpload)

	api := r.Group("/api")
	api.POST("/officer/login", h.OfficerLogin)
	api.POST("/preview_ai", h.RateLimit(preview), h.PreviewAI)
	api.GET("/public/audit/:complaint_id", h.PublicAudit)

	citizen := api.Group("", h.RequireRole(RoleCitizen))
	citizen.POST("/grievances/submit", h.SubmitGrievance)
	citizen.GET("/grievances/me", h.MyGrievances)
	citizen.GET("/dashboard/kpi", h.CitizenKPIs)
	citizen.POST("/draft/save", h.SaveDraft)
	citizen.GET("/draft/load", h.LoadDraft)
	citizen.POST("/draft/delete", h.DeleteDraft)

	api.GET("/complaint/:id", h.RequireRole(RoleCitizen, RoleOfficer), h.GrievanceDetails)

	officer := api.Group("", h.RequireRole(RoleOfficer))
	officer.POST("/officer/resolve_grievance", h.ResolveGrievance)
	if h.StandardResolver != nil {
		officer.POST("/resolution/submit/:complaint_id", h.SubmitResolution)
	}
	officer.GET("/officer/dashboard", h.OfficerDashboard)
	officer.GET("/officer/feed", h.ServeWebSocket)
	officer.POST("/grievance/delete/:id", h.DeleteGrievance)
	officer.POST("/grievance/restore/:id", h.RestoreGrievance)
	officer.GET("/restore/deleted", h.ListDeleted)

	return r
}
