package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"title is required"`
}

// Error codes returned in ErrorResponse.Error
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodePayloadTooLarge  = "payload_too_large"
	ErrCodeUnsupportedMedia = "unsupported_media_type"
	ErrCodeInternal         = "internal_error"
	ErrCodeUnavailable      = "unavailable"
)

// DeletedNotice is the payload broadcast when an event is deleted
type DeletedNotice struct {
	ID string `json:"id" example:"665f1c2ab3e4d5f6a7b8c9d0"`
}
