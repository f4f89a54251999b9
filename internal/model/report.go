package model

import "time"

// ReportStatus is the terminal outcome of a confirm.
type ReportStatus string

const (
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

// Report is one ledger entry describing a confirm outcome.
// This is a pure domain model with no database-specific dependencies or tags.
type Report struct {
	ID           string       `json:"id"`
	SessionID    string       `json:"session_id"`
	OriginalName string       `json:"original_name"`
	OutputName   string       `json:"output_name"`
	Status       ReportStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	ArchiveKey   string       `json:"archive_key,omitempty"`
	Size         int64        `json:"size"`
	CreatedAt    time.Time    `json:"created_at"`
}

// PreviewResult is returned by a successful upload.
type PreviewResult struct {
	Message         string `json:"message"`
	PreviewURL      string `json:"preview_url"`
	SessionID       string `json:"session_id"`
	OriginalPDFName string `json:"original_pdf_name"`
}

// ConfirmRequest is the body of a confirm call.
type ConfirmRequest struct {
	SessionID       string `json:"session_id"`
	OriginalPDFName string `json:"original_pdf_name"`
	OutputFilename  string `json:"output_filename"`
}

// CompletionResult is returned by a successful confirm.
type CompletionResult struct {
	Message     string `json:"message"`
	FinalPDFURL string `json:"final_pdf_url"`
}

// ReportPage is one page of ledger entries.
type ReportPage struct {
	Items []Report `json:"data"`
	Total int      `json:"total"`
}
