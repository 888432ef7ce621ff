package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zephony/zephony-go/models"
	"github.com/Zephony/zephony-go/service"
	"github.com/Zephony/zephony-go/validators"
)

type base64Upload struct {
	Filename string `json:"filename" validate:"required"`
	Data     string `json:"data" validate:"required"`
}

// UploadHandler stores files sent as multipart form data or as base64
// inside a JSON body
type UploadHandler struct {
	uploader *service.Uploader
}

func NewUploadHandler(uploader *service.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) CollectionRoute() string { return "/uploads" }
func (h *UploadHandler) ResourceRoute() string   { return "" }

func (h *UploadHandler) Post(c *gin.Context) {
	if fh, err := c.FormFile("file"); err == nil {
		saved, err := h.uploader.SaveUpload(fh)
		if handleControllerError(c, err) {
			return
		}
		Respond(c, models.Responsify(saved, "File uploaded", http.StatusCreated))
		return
	}

	var payload base64Upload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, "file", "Send a multipart file or a JSON body with filename and data")
		return
	}
	if handleControllerError(c, validators.Validate(&payload)) {
		return
	}

	saved, err := h.uploader.SaveBase64(payload.Data, payload.Filename)
	if err != nil {
		respondError(c, http.StatusBadRequest, "data", err.Error())
		return
	}
	Respond(c, models.Responsify(saved, "File uploaded", http.StatusCreated))
}
