package migrate

import (
	"log/slog"
	"time"

	"github.com/test-moodle/moodle-tiny-translations/pkg/encoding"
	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

// Hooks receives progress callbacks. Implementations must be safe for concurrent use;
// OnFileStatusUpdate is called from worker goroutines. Errors returned by hooks are
// logged and otherwise ignored.
type Hooks interface {
	OnFileDiscovered(path string) error
	OnFileStatusUpdate(path string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks ignores every callback.
type NoOpHooks struct{}

// OnFileDiscovered implements Hooks.
func (NoOpHooks) OnFileDiscovered(string) error { return nil }

// OnFileStatusUpdate implements Hooks.
func (NoOpHooks) OnFileStatusUpdate(string, Status, string, time.Duration) error { return nil }

// OnRunComplete implements Hooks.
func (NoOpHooks) OnRunComplete(Report) error { return nil }

// Options configures a migration run.
type Options struct {
	// InputPath is the directory holding stored fields, one per file. Required.
	InputPath string `mapstructure:"input"`
	// OutputPath receives migrated fields under the same relative paths. Required; may
	// equal InputPath to migrate in place.
	OutputPath string `mapstructure:"output"`

	Mode            Mode        `mapstructure:"mode"`
	Concurrency     int         `mapstructure:"concurrency"`
	OnErrorMode     OnErrorMode `mapstructure:"onError"`
	Extensions      []string    `mapstructure:"extensions"`
	IgnorePatterns  []string    `mapstructure:"ignore"`
	DefaultEncoding string      `mapstructure:"defaultEncoding"`

	CacheEnabled  bool   `mapstructure:"cache"`
	CacheFormat   string `mapstructure:"cacheFormat"`
	CacheFilePath string `mapstructure:"-"` // defaults to OutputPath/cache.FileName

	// AppVersion invalidates caches written by other builds.
	AppVersion string `mapstructure:"-"`
	// SourceFingerprint identifies the hash source configuration for cache validation.
	SourceFingerprint string `mapstructure:"-"`

	Source          hashsource.Source `mapstructure:"-"` // nil behaves like hashsource.None
	EventHooks      Hooks             `mapstructure:"-"` // nil behaves like NoOpHooks
	Logger          slog.Handler      `mapstructure:"-"` // required
	CacheManager    cache.Manager     `mapstructure:"-"` // optional, for tests
	EncodingHandler encoding.Handler  `mapstructure:"-"` // optional, for tests
}
