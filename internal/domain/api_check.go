package domain

import "time"

type APICheck struct {
	ID             int64     `db:"id" json:"id"`
	RequestID      string    `db:"request_id" json:"request_id"`
	UserID         string    `db:"user_id" json:"user_id,omitempty"`
	Method         string    `db:"method" json:"method"`
	URL            string    `db:"url" json:"url"`
	StatusCode     int       `db:"status_code" json:"status_code"`
	Success        bool      `db:"success" json:"success"`
	ResponseTimeMs int64     `db:"response_time_ms" json:"response_time_ms"`
	Error          string    `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
