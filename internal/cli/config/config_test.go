package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/lifecycle"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "translationhash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// defineAllFlags mirrors the flags registered by the translationhash command.
func defineAllFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.BoolP("verbose", "v", false, "")
	flags.String("hash-source", hashsource.KindGenerate, "")
	flags.String("hash", "", "")
	flags.String("editor-id", DefaultEditorID, "")
	flags.StringArray("skip-editor", nil, "")
	flags.Bool("collapse-empty", false, "")
	flags.Bool("save-on-submit", true, "")
	flags.Bool("no-tui", false, "")
	flags.String("report-format", ReportFormatText, "")
	flags.String("report", "", "")
	flags.StringP("input", "i", "", "")
	flags.StringP("output", "o", "", "")
	flags.String("mode", string(migrate.DefaultMode), "")
	flags.Int("concurrency", migrate.DefaultConcurrency, "")
	flags.StringArray("extension", nil, "")
	flags.StringArray("ignore", nil, "")
	flags.String("default-encoding", "", "")
	flags.String("onError", string(migrate.DefaultOnErrorMode), "")
	flags.String("cache-format", cache.DefaultFormat, "")
	flags.Bool("no-cache", false, "")
	return flags
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	cfg, logger, err := LoadAndValidate("", "", "v1", defineAllFlags())
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NotNil(t, cfg.Logger)

	assert.Equal(t, hashsource.KindGenerate, cfg.HashSource)
	assert.Equal(t, DefaultEditorID, cfg.EditorID)
	assert.Equal(t, []string{lifecycle.DefaultSkipEditorID}, cfg.SkipEditors)
	assert.True(t, cfg.SaveOnSubmit)
	assert.False(t, cfg.CollapseEmptyParagraph)
	assert.Equal(t, ReportFormatText, cfg.ReportFormat)

	assert.Equal(t, migrate.ModeNormalize, cfg.Migrate.Mode)
	assert.Equal(t, migrate.OnErrorContinue, cfg.Migrate.OnErrorMode)
	assert.True(t, cfg.Migrate.CacheEnabled)
	assert.Equal(t, cache.FormatGob, cfg.Migrate.CacheFormat)
	assert.Equal(t, migrate.DefaultExtensions, cfg.Migrate.Extensions)
	assert.Equal(t, "v1", cfg.Migrate.AppVersion)
	assert.Equal(t, cfg.Logger, cfg.Migrate.Logger)
}

func TestLoadAndValidate_FileAndProfile(t *testing.T) {
	path := createTempConfigFile(t, `
hashSource: static
hash: abc123
collapseEmptyParagraph: true
migrate:
  mode: strip
  concurrency: 3
  ignore: ["drafts/"]
profiles:
  ci:
    saveOnSubmit: false
    migrate:
      onError: stop
`)

	cfg, _, err := LoadAndValidate(path, "", "v1", defineAllFlags())
	require.NoError(t, err)
	assert.Equal(t, path, cfg.ConfigFilePath)
	assert.Equal(t, hashsource.KindStatic, cfg.HashSource)
	assert.Equal(t, "abc123", cfg.Hash)
	assert.True(t, cfg.CollapseEmptyParagraph)
	assert.True(t, cfg.SaveOnSubmit)
	assert.Equal(t, migrate.ModeStrip, cfg.Migrate.Mode)
	assert.Equal(t, 3, cfg.Migrate.Concurrency)
	assert.Equal(t, []string{"drafts/"}, cfg.Migrate.IgnorePatterns)
	assert.Equal(t, migrate.OnErrorContinue, cfg.Migrate.OnErrorMode)

	cfg, _, err = LoadAndValidate(path, "ci", "v1", defineAllFlags())
	require.NoError(t, err)
	assert.Equal(t, "ci", cfg.ProfileName)
	assert.False(t, cfg.SaveOnSubmit)
	assert.Equal(t, migrate.OnErrorStop, cfg.Migrate.OnErrorMode)
	assert.Equal(t, migrate.ModeStrip, cfg.Migrate.Mode, "profile merge keeps sibling keys")
}

func TestLoadAndValidate_FlagsWin(t *testing.T) {
	path := createTempConfigFile(t, "hashSource: static\nhash: abc123\nmigrate:\n  mode: strip\n")
	flags := defineAllFlags()
	require.NoError(t, flags.Set("hash-source", "none"))
	require.NoError(t, flags.Set("mode", "replace"))
	require.NoError(t, flags.Set("ignore", "a/"))
	require.NoError(t, flags.Set("ignore", "*.bak.html"))
	require.NoError(t, flags.Set("skip-editor", "id_other"))
	require.NoError(t, flags.Set("input", "in"))
	require.NoError(t, flags.Set("no-cache", "true"))
	require.NoError(t, flags.Set("save-on-submit", "false"))

	cfg, _, err := LoadAndValidate(path, "", "v1", flags)
	require.NoError(t, err)
	assert.Equal(t, hashsource.KindNone, cfg.HashSource)
	assert.Equal(t, migrate.ModeReplace, cfg.Migrate.Mode)
	assert.Equal(t, []string{"a/", "*.bak.html"}, cfg.Migrate.IgnorePatterns)
	assert.Equal(t, []string{"id_other"}, cfg.SkipEditors)
	assert.Equal(t, "in", cfg.Migrate.InputPath)
	assert.False(t, cfg.Migrate.CacheEnabled)
	assert.False(t, cfg.SaveOnSubmit)
}

func TestLoadAndValidate_Environment(t *testing.T) {
	t.Setenv("TRANSLATIONHASH_MIGRATE_MODE", "strip")
	t.Setenv("TRANSLATIONHASH_HASHSOURCE", "none")

	cfg, _, err := LoadAndValidate("", "", "v1", defineAllFlags())
	require.NoError(t, err)
	assert.Equal(t, migrate.ModeStrip, cfg.Migrate.Mode)
	assert.Equal(t, hashsource.KindNone, cfg.HashSource)
}

func TestLoadAndValidate_Errors(t *testing.T) {
	t.Run("missing explicit config file", func(t *testing.T) {
		_, _, err := LoadAndValidate(filepath.Join(t.TempDir(), "nope.yaml"), "", "v1", defineAllFlags())
		assert.Error(t, err)
	})

	t.Run("unknown profile", func(t *testing.T) {
		path := createTempConfigFile(t, "verbose: false\n")
		_, _, err := LoadAndValidate(path, "missing", "v1", defineAllFlags())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "profile 'missing' not found")
	})

	invalid := map[string][2]string{
		"hash source":     {"hash-source", "sequence"},
		"static no hash":  {"hash-source", "static"},
		"mode":            {"mode", "shuffle"},
		"onError":         {"onError", "retry"},
		"concurrency":     {"concurrency", "-1"},
		"cache format":    {"cache-format", "xml"},
		"report format":   {"report-format", "yaml"},
		"empty editor id": {"editor-id", ""},
	}
	for name, kv := range invalid {
		t.Run(name, func(t *testing.T) {
			flags := defineAllFlags()
			require.NoError(t, flags.Set(kv[0], kv[1]))
			_, _, err := LoadAndValidate("", "", "v1", flags)
			assert.ErrorIs(t, err, ErrConfigValidation)
		})
	}
}

func TestConfig_SourceAndSessionOptions(t *testing.T) {
	cfg := Config{HashSource: hashsource.KindStatic, Hash: "abc123", SkipEditors: []string{"x"}, SaveOnSubmit: true}
	src, err := cfg.Source()
	require.NoError(t, err)
	h, ok := src.Hash()
	assert.True(t, ok)
	assert.Equal(t, "abc123", h)

	opts := cfg.SessionOptions(src)
	assert.Equal(t, src, opts.Source)
	assert.Equal(t, []string{"x"}, opts.SkipEditorIDs)
	assert.True(t, opts.SaveOnSubmit)

	_, err = Config{HashSource: "bogus"}.Source()
	assert.ErrorIs(t, err, hashsource.ErrUnknownKind)
}

func TestConfig_ValidateMigrate(t *testing.T) {
	tests := map[string]struct {
		source  string
		mode    migrate.Mode
		wantErr bool
	}{
		"static default mode": {hashsource.KindStatic, "", true},
		"static normalize":    {hashsource.KindStatic, migrate.ModeNormalize, true},
		"static replace":      {hashsource.KindStatic, migrate.ModeReplace, true},
		"static strip":        {hashsource.KindStatic, migrate.ModeStrip, false},
		"generate normalize":  {hashsource.KindGenerate, migrate.ModeNormalize, false},
		"none replace":        {hashsource.KindNone, migrate.ModeReplace, false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{HashSource: tc.source, Hash: "abc123", Migrate: migrate.Options{Mode: tc.mode}}
			err := cfg.ValidateMigrate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrConfigValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
