package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/BarkinBalci/event-board-service/internal/dto"
	"github.com/BarkinBalci/event-board-service/internal/media"
)

const imageField = "image"

// uploadPolicyError is a rejected upload with its HTTP mapping
type uploadPolicyError struct {
	status int
	code   string
	msg    string
}

func (e *uploadPolicyError) Error() string {
	return e.msg
}

func noopClose() {}

// readImage returns the optional image part of a multipart create request.
// The returned func closes the underlying file and must always be called.
func (h *Handler) readImage(c *gin.Context) (*media.File, func(), error) {
	if c.ContentType() != binding.MIMEMultipartPOSTForm {
		return nil, noopClose, nil
	}

	header, err := c.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noopClose, nil
	}
	if err != nil {
		return nil, noopClose, fmt.Errorf("failed to read %s: %w", imageField, err)
	}

	if header.Size > h.options.Upload.MaxBytes {
		return nil, noopClose, &uploadPolicyError{
			status: http.StatusRequestEntityTooLarge,
			code:   dto.ErrCodePayloadTooLarge,
			msg:    fmt.Sprintf("image is %d bytes, limit is %d", header.Size, h.options.Upload.MaxBytes),
		}
	}
	if header.Size == 0 {
		return nil, noopClose, &uploadPolicyError{
			status: http.StatusBadRequest,
			code:   dto.ErrCodeValidation,
			msg:    "image is empty",
		}
	}

	file, err := header.Open()
	if err != nil {
		return nil, noopClose, fmt.Errorf("failed to open %s: %w", imageField, err)
	}
	closeFile := func() { _ = file.Close() }

	detected, err := mimetype.DetectReader(file)
	if err != nil {
		closeFile()
		return nil, noopClose, fmt.Errorf("failed to sniff %s: %w", imageField, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		closeFile()
		return nil, noopClose, fmt.Errorf("failed to rewind %s: %w", imageField, err)
	}

	contentType := detected.String()
	if !h.allowedType(contentType) {
		closeFile()
		return nil, noopClose, &uploadPolicyError{
			status: http.StatusUnsupportedMediaType,
			code:   dto.ErrCodeUnsupportedMedia,
			msg:    fmt.Sprintf("image type %s is not allowed", contentType),
		}
	}

	return &media.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
		Reader:      file,
	}, closeFile, nil
}

func (h *Handler) allowedType(contentType string) bool {
	if len(h.options.Upload.AllowedTypes) == 0 {
		return true
	}
	for _, prefix := range h.options.Upload.AllowedTypes {
		if strings.HasPrefix(contentType, strings.TrimSpace(prefix)) {
			return true
		}
	}
	return false
}
