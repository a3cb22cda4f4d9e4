package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/audit"
	"civicledger/backend/internal/models"
	"civicledger/backend/internal/resolution"
)

// defaultLocationClaim is used when the officer's device sends no position.
const defaultLocationClaim = "17.3850,78.4867"

// ResolveGrievance submits resolution proof for a grievance assigned to the
// signed-in officer. Form fields: complaint_id, mock_gps, after_photo.
func (h *Handler) ResolveGrievance(c *gin.Context) {
	h.resolve(c, h.Resolver, c.PostForm("complaint_id"))
}

// SubmitResolution is the path-addressed variant judged by StandardResolver.
// Form fields: mock_gps, after_photo.
func (h *Handler) SubmitResolution(c *gin.Context) {
	h.resolve(c, h.StandardResolver, c.Param("complaint_id"))
}

func (h *Handler) resolve(c *gin.Context, r Resolver, complaintID string) {
	fh, err := c.FormFile("after_photo")
	if err != nil {
		h.fail(c, apperr.Newf(apperr.ErrInvalidInput, "resolution 'after' photo is required"))
		return
	}
	photo, err := readPhoto(fh)
	if err != nil {
		h.fail(c, err)
		return
	}

	out, err := r.SubmitResolution(c.Request.Context(), resolution.Attempt{
		ComplaintID:   complaintID,
		OfficerID:     subject(c),
		Photo:         photo.Data,
		PhotoName:     photo.Name,
		ContentType:   photo.ContentType,
		LocationClaim: c.DefaultPostForm("mock_gps", defaultLocationClaim),
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	notice := h.message(c, "resolution_recorded")
	if out.Status == models.StatusFraud {
		notice = h.message(c, "resolution_flagged", out.FraudReason)
	}
	c.JSON(http.StatusOK, gin.H{"notice": notice, "outcome": out})
}

// OfficerDashboard lists the officer's grievances with KPIs.
// Query: sort=oldest, seriousness=IMMEDIATE|STANDARD.
func (h *Handler) OfficerDashboard(c *gin.Context) {
	f := audit.DashboardFilter{
		SortOldest:  c.Query("sort") == "oldest",
		Seriousness: strings.ToUpper(c.Query("seriousness")),
	}
	dash, err := h.Auditor.OfficerDashboard(c.Request.Context(), subject(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

func (h *Handler) DeleteGrievance(c *gin.Context) {
	if err := h.Grievances.Delete(c.Request.Context(), c.Param("id"), subject(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, "grievance_deleted")})
}

func (h *Handler) RestoreGrievance(c *gin.Context) {
	status, err := h.Grievances.Restore(c.Request.Context(), c.Param("id"), subject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, "grievance_restored", status), "status": status})
}

type deletedView struct {
	ComplaintID         string `json:"complaint_id"`
	Classification      string `json:"grievance_type"`
	ProfessionalSummary string `json:"professional_text"`
	ResolvedAt          string `json:"resolved_at"`
}

// ListDeleted feeds the restore dashboard.
func (h *Handler) ListDeleted(c *gin.Context) {
	list, err := h.Grievances.ListDeleted(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]deletedView, 0, len(list))
	for _, g := range list {
		resolvedAt := "N/A"
		if g.ResolvedAt != nil {
			resolvedAt = g.ResolvedAt.Format("2006-01-02 15:04:05")
		}
		out = append(out, deletedView{
			ComplaintID:         g.ComplaintID,
			Classification:      g.Classification,
			ProfessionalSummary: g.ProfessionalSummary,
			ResolvedAt:          resolvedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"deleted_grievances": out})
}
