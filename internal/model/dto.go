package model

import (
	"mime/multipart"
	"time"
)

// APIResponse is the envelope every JSON response uses.
type APIResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

func OK(message string, data any) APIResponse {
	return APIResponse{Success: true, Message: message, Data: data, Errors: []string{}}
}

func Fail(message string, errs ...string) APIResponse {
	if errs == nil {
		errs = []string{}
	}
	return APIResponse{Success: false, Message: message, Errors: errs}
}

// RegisterClientRequest is the multipart form for POST /clients.
type RegisterClientRequest struct {
	ID      string                `form:"id" binding:"required,max=20"`
	Name    string                `form:"name" binding:"required,max=200"`
	Address string                `form:"address" binding:"required,max=500"`
	Phone   string                `form:"phone" binding:"required,max=50"`
	Photo1  *multipart.FileHeader `form:"photo1"`
	Photo2  *multipart.FileHeader `form:"photo2"`
	Photo3  *multipart.FileHeader `form:"photo3"`
}

// UploadFilesRequest is the multipart form for POST /files.
type UploadFilesRequest struct {
	ClientID string                `form:"clientId" binding:"required,max=20"`
	ZipFile  *multipart.FileHeader `form:"zipFile" binding:"required"`
}

// ClientSummary is a client without its photo blobs.
type ClientSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
	HasPhoto1    bool      `json:"has_photo1"`
	HasPhoto2    bool      `json:"has_photo2"`
	HasPhoto3    bool      `json:"has_photo3"`
}

type LevelCounts struct {
	Info    int64 `json:"INFO"`
	Error   int64 `json:"ERROR"`
	Warning int64 `json:"WARNING"`
}

type LogStatistics struct {
	TotalLogs         int64           `json:"total_logs"`
	LogsByLevel       LevelCounts     `json:"logs_by_level"`
	AverageDurationMs float64         `json:"average_duration_ms"`
	TopEndpoints      []EndpointUsage `json:"top_endpoints"`
	GeneratedAt       time.Time       `json:"generated_at"`
}
