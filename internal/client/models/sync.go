package models

import "time"

// SyncState is the phase of the current (or last) sync cycle.
type SyncState string

const (
	SyncIdle        SyncState = "idle"
	SyncUploading   SyncState = "uploading"
	SyncDownloading SyncState = "downloading"
	SyncFailed      SyncState = "failed"
)

// RecordOutcome is the upload result for one pending record.
type RecordOutcome struct {
	RecordID string `json:"recordId"`
	RemoteID string `json:"remoteId,omitempty"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

type UploadResult struct {
	Success   bool            `json:"success"`
	Attempted int             `json:"attempted"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Records   []RecordOutcome `json:"records,omitempty"`
	Message   string          `json:"message,omitempty"`
}

type DownloadResult struct {
	Success bool   `json:"success"`
	Records int    `json:"records"`
	Message string `json:"message,omitempty"`
}

// SyncResult aggregates one PerformFullSync call. Success is true only when
// both phases succeeded.
type SyncResult struct {
	Success   bool           `json:"success"`
	Upload    UploadResult   `json:"upload"`
	Download  DownloadResult `json:"download"`
	Timestamp time.Time      `json:"timestamp"`
	State     SyncState      `json:"state"`
	Message   string         `json:"message,omitempty"`
	Kind      FailureKind    `json:"kind,omitempty"`
}

// SyncStatus is a snapshot for status displays.
type SyncStatus struct {
	State        SyncState
	Pending      int
	LastFullSync time.Time
	Connected    bool
}
