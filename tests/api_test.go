package tests

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftcart/internal/adapter/api/handler"
	"swiftcart/internal/infrastructure/relay"
)

func TestHealthCheck(t *testing.T) {
	// Setup
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	healthHandler := handler.NewHealthHandler(relay.NewServer(nil, time.Minute))

	// Assertions
	if assert.NoError(t, healthHandler.CheckHealth(c)) {
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "Server is running")
	}
}

type fakeUploader struct {
	url string
	err error
}

func (f *fakeUploader) UploadChatImage(ctx context.Context, file io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func TestUploadChatImage(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("not really a jpeg"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/chat-image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "buyer-1")

	uploadHandler := handler.NewUploadHandler(&fakeUploader{
		url: "https://storage.googleapis.com/bucket/public/chat-images/abc.jpg",
	})

	if assert.NoError(t, uploadHandler.UploadChatImage(c)) {
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "chat-images/abc.jpg")
	}
}

func TestUploadChatImageRequiresFile(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/uploads/chat-image", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("uid", "buyer-1")

	uploadHandler := handler.NewUploadHandler(&fakeUploader{})

	if assert.NoError(t, uploadHandler.UploadChatImage(c)) {
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
