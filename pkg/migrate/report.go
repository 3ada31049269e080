package migrate

import "time"

// Report summarizes a migration run.
type Report struct {
	Summary Summary       `json:"summary" toml:"summary"`
	Files   []FileResult  `json:"files" toml:"files"`
	Skipped []SkippedInfo `json:"skipped" toml:"skipped"`
	Errors  []ErrorInfo   `json:"errors" toml:"errors"`
}

// Summary holds aggregate counts.
type Summary struct {
	InputPath       string    `json:"inputPath" toml:"inputPath"`
	OutputPath      string    `json:"outputPath" toml:"outputPath"`
	Mode            Mode      `json:"mode" toml:"mode"`
	TotalFiles      int       `json:"totalFiles" toml:"totalFiles"`
	ProcessedCount  int       `json:"processedCount" toml:"processedCount"`
	CachedCount     int       `json:"cachedCount" toml:"cachedCount"`
	SkippedCount    int       `json:"skippedCount" toml:"skippedCount"`
	ErrorCount      int       `json:"errorCount" toml:"errorCount"`
	Outcomes        Tally     `json:"outcomes" toml:"outcomes"`
	FatalError      bool      `json:"fatalError" toml:"fatalError"`
	CacheEnabled    bool      `json:"cacheEnabled" toml:"cacheEnabled"`
	Concurrency     int       `json:"concurrency" toml:"concurrency"`
	DurationSeconds float64   `json:"durationSeconds" toml:"durationSeconds"`
	Timestamp       time.Time `json:"timestamp" toml:"timestamp"`
	SchemaVersion   string    `json:"schemaVersion" toml:"schemaVersion"`
}

// Tally counts processed files per Outcome.
type Tally map[Outcome]int

// FileResult describes one processed file.
type FileResult struct {
	Path        string  `json:"path" toml:"path"`
	OutputPath  string  `json:"outputPath" toml:"outputPath"`
	Outcome     Outcome `json:"outcome" toml:"outcome"`
	Hash        string  `json:"hash,omitempty" toml:"hash,omitempty"`
	Encoding    string  `json:"encoding,omitempty" toml:"encoding,omitempty"`
	CacheStatus string  `json:"cacheStatus" toml:"cacheStatus"`
	DurationMs  int64   `json:"durationMs" toml:"durationMs"`
}

// SkippedInfo describes a file that was deliberately not processed.
type SkippedInfo struct {
	Path    string `json:"path" toml:"path"`
	Reason  string `json:"reason" toml:"reason"`
	Details string `json:"details,omitempty" toml:"details,omitempty"`
}

// ErrorInfo describes a file that failed.
type ErrorInfo struct {
	Path  string `json:"path" toml:"path"`
	Error string `json:"error" toml:"error"`
}
