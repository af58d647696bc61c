package model

import "time"

const (
	LevelInfo    = "INFO"
	LevelError   = "ERROR"
	LevelWarning = "WARNING"
)

// APILog is one request/response cycle as seen by the request logging
// middleware. Rows are only ever inserted.
type APILog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Timestamp    time.Time `gorm:"not null;index" json:"timestamp"`
	Level        string    `gorm:"size:50;not null;index" json:"level"`
	RequestBody  string    `json:"request_body"`
	ResponseBody string    `json:"response_body"`
	URL          string    `gorm:"size:500" json:"url"`
	Method       string    `gorm:"size:10" json:"method"`
	IP           string    `gorm:"size:50" json:"ip"`
	Detail       string    `json:"detail"`
	StatusCode   int       `json:"status_code"`
	DurationMs   float64   `json:"duration_ms"`
}

func (APILog) TableName() string { return "api_logs" }

// LevelForStatus classifies a final HTTP status.
func LevelForStatus(status int) string {
	if status >= 400 {
		return LevelError
	}
	return LevelInfo
}

// EndpointUsage is one row of the most-called endpoints aggregate.
type EndpointUsage struct {
	Endpoint string `json:"endpoint" gorm:"column:endpoint"`
	Method   string `json:"method" gorm:"column:method"`
	Count    int64  `json:"count" gorm:"column:count"`
}

// LogAggregate is the raw aggregate read from the store.
type LogAggregate struct {
	Total         int64
	ByLevel       map[string]int64
	AvgDurationMs float64
	TopEndpoints  []EndpointUsage
}
