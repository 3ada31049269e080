package migrate

// Status is the processing state of one file, reported through Hooks.
type Status string

// File statuses.
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusCached     Status = "cached"
)

// Mode selects the marker operation applied to every field.
type Mode string

// Migration modes.
const (
	// ModeNormalize keeps existing hashes, rewrites legacy markers to the canonical shape
	// and marks unmarked fields when the hash source yields a hash.
	ModeNormalize Mode = "normalize"
	// ModeStrip removes every marker.
	ModeStrip Mode = "strip"
	// ModeReplace gives every field a fresh hash.
	ModeReplace Mode = "replace"
)

// OnErrorMode defines the behavior when a single file fails.
type OnErrorMode string

const (
	OnErrorContinue OnErrorMode = "continue"
	OnErrorStop     OnErrorMode = "stop"
)

// Outcome describes what happened to a field's marker.
type Outcome string

const (
	OutcomeInserted   Outcome = "inserted"
	OutcomeNormalized Outcome = "normalized"
	OutcomeUnchanged  Outcome = "unchanged"
	OutcomeStripped   Outcome = "stripped"
	OutcomeReplaced   Outcome = "replaced"
	OutcomeUnmarked   Outcome = "unmarked"
	OutcomeCached     Outcome = "cached"
)
