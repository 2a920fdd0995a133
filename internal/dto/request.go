package dto

import "time"

// CreateEventRequest represents the fields of a create event request.
// It binds from multipart forms (with an optional "image" file part) and from JSON.
type CreateEventRequest struct {
	Title       string     `form:"title" json:"title" binding:"required,notblank,max=200" example:"Launch"`
	Description string     `form:"description" json:"description" binding:"max=5000" example:"Product launch party"`
	Location    string     `form:"location" json:"location" binding:"max=200" example:"Lagos"`
	Date        *time.Time `form:"date" json:"date" time_format:"2006-01-02T15:04:05Z07:00" example:"2026-11-01T18:00:00Z"`
}
