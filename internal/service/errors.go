package service

import (
	"errors"
	"fmt"
)

// Client-caused failures. Handlers map each to its own status code.
var (
	ErrNoFileSelected     = errors.New("no file selected")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmptyText          = errors.New("pdf has no extractable text")
	ErrMissingFields      = errors.New("session_id, original_pdf_name and output_filename are required")
	ErrInvalidName        = errors.New("invalid file name")
	ErrSessionNotFound    = errors.New("original file not found for session")
	ErrSessionBusy        = errors.New("session is already being processed")
	ErrReportNotFound     = errors.New("report not found")
	ErrNotArchived        = errors.New("report has no archived copy")
	ErrLedgerUnavailable  = errors.New("report ledger is not configured")
	ErrArchiveUnavailable = errors.New("report archive is not configured")
)

// Stage names one step of the report pipeline.
type Stage string

const (
	StageSave      Stage = "save"
	StageExtract   Stage = "extract"
	StageAnonymize Stage = "anonymize"
	StageAnalyze   Stage = "analyze"
	StageRender    Stage = "render"
	StageMerge     Stage = "merge"
)

// StageError is a processing failure inside one pipeline stage.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
