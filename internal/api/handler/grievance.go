package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"civicledger/backend/internal/apperr"
	"civicledger/backend/internal/complaint"
)

// maxPhotoBytes caps a single uploaded photo.
const maxPhotoBytes = 10 << 20

func readPhoto(fh *multipart.FileHeader) (complaint.Photo, error) {
	if fh.Size > maxPhotoBytes {
		return complaint.Photo{}, apperr.Newf(apperr.ErrInvalidInput, "photo %s exceeds %d bytes", fh.Filename, maxPhotoBytes)
	}
	f, err := fh.Open()
	if err != nil {
		return complaint.Photo{}, apperr.Wrap(apperr.ErrInvalidInput, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err))
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxPhotoBytes+1))
	if err != nil {
		return complaint.Photo{}, apperr.Wrap(apperr.ErrInvalidInput, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err))
	}
	return complaint.Photo{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data}, nil
}

// SubmitGrievance files a grievance for the signed-in citizen.
// Form fields: raw_text, location, proof_photos (optional, repeated).
func (h *Handler) SubmitGrievance(c *gin.Context) {
	req := complaint.FileRequest{
		FilerID:  subject(c),
		RawText:  c.PostForm("raw_text"),
		Location: c.PostForm("location"),
	}
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["proof_photos"] {
			if fh.Filename == "" {
				continue
			}
			p, err := readPhoto(fh)
			if err != nil {
				h.fail(c, err)
				return
			}
			req.Photos = append(req.Photos, p)
		}
	}

	g, err := h.Grievances.File(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        h.message(c, "grievance_filed"),
		"grievance_id":   g.ComplaintID,
		"status":         g.Status,
		"classification": g.Classification,
	})
}

type previewRequest struct {
	RawText  string `json:"raw_text" binding:"required"`
	Location string `json:"location"`
}

// PreviewAI runs triage without storing anything.
func (h *Handler) PreviewAI(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Newf(apperr.ErrInvalidInput, "raw_text is required"))
		return
	}
	triage, err := h.Grievances.Preview(c.Request.Context(), req.RawText, req.Location)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, triage)
}

// MyGrievances lists the citizen's grievances. Query: category, status.
func (h *Handler) MyGrievances(c *gin.Context) {
	views, err := h.Auditor.CitizenGrievances(c.Request.Context(), subject(c), c.Query("category"), c.Query("status"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *Handler) CitizenKPIs(c *gin.Context) {
	kpis, err := h.Auditor.CitizenKPIs(c.Request.Context(), subject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *Handler) GrievanceDetails(c *gin.Context) {
	view, err := h.Auditor.GrievanceDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// PublicAudit returns the audit record of a grievance. No login needed.
func (h *Handler) PublicAudit(c *gin.Context) {
	rec, err := h.Auditor.GetAuditRecord(c.Request.Context(), c.Param("complaint_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type draftRequest struct {
	RawText  string `json:"raw_text"`
	Location string `json:"location"`
}

func (h *Handler) SaveDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.Newf(apperr.ErrInvalidInput, "invalid draft payload"))
		return
	}
	d, err := h.Grievances.SaveDraft(c.Request.Context(), subject(c), req.RawText, req.Location)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, "draft_saved"), "saved_at": d.SavedAt})
}

func (h *Handler) LoadDraft(c *gin.Context) {
	d, err := h.Grievances.LoadDraft(c.Request.Context(), subject(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDraft(c *gin.Context) {
	if err := h.Grievances.DeleteDraft(c.Request.Context(), subject(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.message(c, "draft_deleted")})
}
