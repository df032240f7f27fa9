package model

import "time"

// AccessActionDownload is currently the only recorded file access action.
const AccessActionDownload = "download"

// FileAccessLog is an append-only audit row recorded after each successful
// download resolution. The gateway never mutates or deletes entries; they are
// also the backing data for the rolling-window rate limit.
type FileAccessLog struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id,omitempty"`
	ReportID  *string   `json:"report_id,omitempty"`
	FilePath  string    `json:"file_path"`
	Action    string    `json:"action"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
