package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// ServeUpload streams a stored photo. Refs are the values kept in
// Attachment.FilePath.
func (h *Handler) ServeUpload(c *gin.Context) {
	ref := strings.TrimPrefix(c.Param("ref"), "/")
	rc, err := h.Files.Open(c.Request.Context(), ref)
	if err != nil {
		h.Log.WithError(err).WithField("ref", ref).Debug("Upload not served")
		c.JSON(http.StatusNotFound, gin.H{"message": "File not found."})
		return
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxPhotoBytes))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
