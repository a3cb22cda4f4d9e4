// Package handler exposes the grievance pipeline over HTTP with gin.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"civicledger/backend/internal/ai"
	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/complaint"
	"civicledger/backend/internal/feed"
	"civicledger/backend/internal/filestore"
	"civicledger/backend/internal/localization"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/resolution"
)

// Grievances is the citizen-facing and restore side of complaint.Service.
type Grievances interface {
	File(ctx context.Context, req complaint.FileRequest) (*models.Grievance, error)
	Preview(ctx context.Context, rawText, location string) (*ai.Triage, error)
	Delete(ctx context.Context, complaintID, actor string) error
	Restore(ctx context.Context, complaintID, actor string) (models.GrievanceStatus, error)
	ListDeleted(ctx context.Context) ([]models.Grievance, error)
	SaveDraft(ctx context.Context, userID, rawText, location string) (*models.Draft, error)
	LoadDraft(ctx context.Context, userID string) (*models.Draft, error)
	DeleteDraft(ctx context.Context, userID string) error
}

// Resolver records resolution attempts. *resolution.Workflow implements it.
type Resolver interface {
	SubmitResolution(ctx context.Context, a resolution.Attempt) (*resolution.Outcome, error)
}

// Auditor serves the read-only projections. *audit.Query implements it.
type Auditor interface {
	GetAuditRecord(ctx context.Context, complaintID string) (*audit.Record, error)
	OfficerDashboard(ctx context.Context, officerID string, f audit.DashboardFilter) (*audit.OfficerDashboard, error)
	CitizenKPIs(ctx context.Context, userID string) (*audit.CitizenKPIs, error)
	CitizenGrievances(ctx context.Context, userID, category, status string) ([]audit.GrievanceView, error)
	GrievanceDetails(ctx context.Context, complaintID string) (*audit.GrievanceView, error)
}

// Directory looks up officers for login and reports database health.
type Directory interface {
	GetOfficerByEmail(ctx context.Context, email string) (*models.Officer, error)
	Ping(ctx context.Context) error
}

// Handler serves the HTTP API. Resolver backs the officer resolution form;
// StandardResolver, when set, backs /api/resolution/submit with the lenient
// cutoff.
type Handler struct {
	Grievances       Grievances
	Resolver         Resolver
	StandardResolver Resolver
	Auditor          Auditor
	Officers         Directory
	Files            filestore.Store
	Hub              *feed.Hub
	Tokens           *TokenIssuer
	Localizer        *localization.Localizer
	Log              logrus.FieldLogger
}

func NewHandler(g Grievances, r Resolver, a Auditor, officers Directory, files filestore.Store, hub *feed.Hub, tokens *TokenIssuer, loc *localization.Localizer, log logrus.FieldLogger) *Handler {
	return &Handler{
		Grievances: g,
		Resolver:   r,
		Auditor:    a,
		Officers:   officers,
		Files:      files,
		Hub:        hub,
		Tokens:     tokens,
		Localizer:  loc,
		Log:        log,
	}
}

func (h *Handler) lang(c *gin.Context) string {
	return h.Localizer.Lang(c.GetHeader("Accept-Language"))
}

func (h *Handler) message(c *gin.Context, key string, args ...interface{}) string {
	if len(args) == 0 {
		return h.Localizer.GetString(h.lang(c), key)
	}
	return h.Localizer.Format(h.lang(c), key, args...)
}

// fail writes the status that matches the error kind. The error is attached
// to the gin context so the request logger records it.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError || status == http.StatusServiceUnavailable {
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

// Health reports whether the database answers.
func (h *Handler) Health(c *gin.Context) {
	dbStatus := "connected"
	if err := h.Officers.Ping(c.Request.Context()); err != nil {
		h.Log.WithError(err).Warn("Health check: database unreachable")
		dbStatus = "connection_error"
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db_status": dbStatus})
}
