// Package server provides the HTTP server for the Tubely API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

import (
	"time"

	"github.com/maauso/tubely-api/internal/ingest"
)

// CreateVideoRequest is the HTTP request body for creating a video record.
type CreateVideoRequest struct {
	// Title is the display title.
	Title string `json:"title" validate:"required,max=200"`
	// Description is free-form text.
	Description string `json:"description" validate:"max=2000"`
}

// VideoResponse is the HTTP representation of a video record.
// Asset fields hold signed URLs, never storage keys.
type VideoResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	VideoURL     string    `json:"video_url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toVideoResponse(v ingest.SignedVideo) VideoResponse {
	return VideoResponse{
		ID:           v.ID,
		UserID:       v.OwnerID,
		Title:        v.Title,
		Description:  v.Description,
		VideoURL:     v.VideoURL,
		ThumbnailURL: v.ThumbnailURL,
		CreatedAt:    v.CreatedAt,
		UpdatedAt:    v.UpdatedAt,
	}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
