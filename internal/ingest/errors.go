package ingest

import "errors"

// File-level failures. Row-level problems are never errors, they are
// counted as skips in the ingestion summary.
var (
	// ErrUnrecognizedSourceType means the file name matched no known export
	// naming convention and no type was declared by the caller.
	ErrUnrecognizedSourceType = errors.New("unrecognized source type")

	// ErrMissingColumn means a required logical column had no matching
	// header candidate; the file is rejected whole.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyFile means the file had no header row.
	ErrEmptyFile = errors.New("empty file")
)
