package migrate

// Defaults applied by the configuration layer and by Run for zero-valued options.
const (
	// DefaultConcurrency of 0 means runtime.NumCPU().
	DefaultConcurrency  = 0
	DefaultCacheEnabled = true
	DefaultMode         = ModeNormalize
	DefaultOnErrorMode  = OnErrorContinue
)

// DefaultExtensions lists the file extensions treated as stored fields.
var DefaultExtensions = []string{".html", ".htm"}

// ReportSchemaVersion is the version of the JSON report layout.
const ReportSchemaVersion = "1"

// Cache status strings used in FileResult.
const (
	CacheStatusHit      = "hit"
	CacheStatusMiss     = "miss"
	CacheStatusDisabled = "disabled"
)

// Skip reasons used in SkippedInfo.
const (
	SkipReasonBinary  = "binary_file"
	SkipReasonIgnored = "ignored_pattern"
)
