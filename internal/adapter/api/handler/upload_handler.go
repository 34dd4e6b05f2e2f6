package handler

import (
	"context"
	"io"

	"github.com/labstack/echo/v4"

	"swiftcart/pkg/errors"
	"swiftcart/pkg/response"
)

// ChatImageUploader stores one chat image and returns its public URL.
type ChatImageUploader interface {
	UploadChatImage(ctx context.Context, file io.Reader, contentType string) (string, error)
}

type UploadHandler struct {
	uploader ChatImageUploader
}

func NewUploadHandler(uploader ChatImageUploader) *UploadHandler {
	return &UploadHandler{
		uploader: uploader,
	}
}

// UploadChatImage accepts a multipart image and returns the URL the
// client then sends as a CHAT event's imageUrl.
func (h *UploadHandler) UploadChatImage(c echo.Context) error {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("Image file is required", err))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.Error(c, errors.Internal("Failed to open uploaded file", err))
	}
	defer file.Close()

	url, err := h.uploader.UploadChatImage(c.Request().Context(), file, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, map[string]string{
		"image_url": url,
	})
}
