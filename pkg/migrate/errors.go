package migrate

import "errors"

var (
	// ErrConfigValidation indicates invalid Options. Returned directly by Run.
	ErrConfigValidation = errors.New("invalid migration options")

	// ErrReadFailed indicates a stored field could not be read.
	ErrReadFailed = errors.New("failed to read file")

	// ErrBinaryFile indicates a file looked binary. Such files are skipped, the error is
	// only used to annotate the report.
	ErrBinaryFile = errors.New("binary file encountered")

	// ErrDecodeFailed indicates the file could not be converted to UTF-8.
	ErrDecodeFailed = errors.New("failed to decode file")

	// ErrMkdirFailed indicates an output directory could not be created.
	ErrMkdirFailed = errors.New("failed to create output directory")

	// ErrWriteFailed indicates the migrated field could not be written.
	ErrWriteFailed = errors.New("failed to write output file")

	// ErrStopped is returned by Run when a file failed and OnErrorMode is "stop".
	ErrStopped = errors.New("migration stopped after file error")
)
