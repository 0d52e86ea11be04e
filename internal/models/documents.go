package models

import (
	"time"
)

// DocumentStatus tracks the extraction/indexing lifecycle of a document.
type DocumentStatus string

const (
	StatusPending DocumentStatus = "pending"
	StatusIndexed DocumentStatus = "indexed"
	StatusFailed  DocumentStatus = "failed"
)

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s DocumentStatus) bool {
	switch s {
	case StatusPending, StatusIndexed, StatusFailed:
		return true
	}
	return false
}

// DocumentRecord is the registry entry for one unique document.
// Fingerprint (a SHA-256 digest of the raw bytes) is the unique key;
// filename is display only and may repeat across records.
type DocumentRecord struct {
	Fingerprint string         `json:"fingerprint" db:"fingerprint"`
	Filename    string         `json:"filename" db:"filename"`
	ContentType string         `json:"content_type" db:"content_type"`
	SizeBytes   int64          `json:"size_bytes" db:"size_bytes"`
	Status      DocumentStatus `json:"status" db:"status"`
	UploadedAt  time.Time      `json:"uploaded_at" db:"uploaded_at"`
}

type UploadRequest struct {
	File        []byte
	Filename    string
	ContentType string
}

type UploadResponse struct {
	Document  DocumentRecord `json:"document"`
	Duplicate bool           `json:"duplicate"`
	Message   string         `json:"message"`
}
