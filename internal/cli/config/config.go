// Package config loads command line configuration from defaults, a config file, an
// optional profile, the environment and flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/lifecycle"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate/cache"
)

const (
	EnvPrefix         = "TRANSLATIONHASH"
	DefaultConfigName = "translationhash"
	DefaultEditorID   = "id_editor"
)

// Report formats accepted by the migrate command.
const (
	ReportFormatText = "text"
	ReportFormatJSON = "json"
	ReportFormatTOML = "toml"
)

// ErrConfigValidation indicates an invalid configuration value.
var ErrConfigValidation = errors.New("invalid configuration")

// Config is the merged command line configuration.
type Config struct {
	Verbose                bool     `mapstructure:"verbose"`
	HashSource             string   `mapstructure:"hashSource"`
	Hash                   string   `mapstructure:"hash"`
	EditorID               string   `mapstructure:"editorId"`
	SkipEditors            []string `mapstructure:"skipEditors"`
	CollapseEmptyParagraph bool     `mapstructure:"collapseEmptyParagraph"`
	SaveOnSubmit           bool     `mapstructure:"saveOnSubmit"`
	NoTUI                  bool     `mapstructure:"noTui"`
	ReportFormat           string   `mapstructure:"reportFormat"`
	ReportFile             string   `mapstructure:"reportFile"`

	Migrate migrate.Options `mapstructure:"migrate"`

	ConfigFilePath string       `mapstructure:"-"`
	ProfileName    string       `mapstructure:"-"`
	Logger         slog.Handler `mapstructure:"-"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"verbose":          "verbose",
	"hash-source":      "hashSource",
	"hash":             "hash",
	"editor-id":        "editorId",
	"skip-editor":      "skipEditors",
	"collapse-empty":   "collapseEmptyParagraph",
	"save-on-submit":   "saveOnSubmit",
	"no-tui":           "noTui",
	"report-format":    "reportFormat",
	"report":           "reportFile",
	"input":            "migrate.input",
	"output":           "migrate.output",
	"mode":             "migrate.mode",
	"concurrency":      "migrate.concurrency",
	"extension":        "migrate.extensions",
	"ignore":           "migrate.ignore",
	"default-encoding": "migrate.defaultEncoding",
	"onError":          "migrate.onError",
	"cache-format":     "migrate.cacheFormat",
}

// LoadAndValidate merges all configuration sources, validates the result and builds the
// logger. cfgFile overrides the config file search; profileName selects an entry under
// "profiles". Flags that are not defined on flags are simply not bound.
func LoadAndValidate(cfgFile, profileName, appVersion string, flags *pflag.FlagSet) (Config, *slog.Logger, error) {
	var cfg Config
	v := viper.New()
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
			v.AddConfigPath(filepath.Join(home, "."+DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			used := cfgFile
			if used == "" {
				used = fmt.Sprintf("searched locations for %s.yaml", DefaultConfigName)
			}
			tempLogger.Error("Error reading configuration file", slog.String("path", used), slog.String("error", err.Error()))
			return cfg, tempLogger, fmt.Errorf("error reading config file '%s': %w", used, err)
		}
		tempLogger.Debug("No configuration file found, using defaults/env/flags")
	} else {
		cfg.ConfigFilePath = v.ConfigFileUsed()
	}

	cfg.ProfileName = profileName
	if profileName != "" {
		key := "profiles." + profileName
		sub := v.Sub(key)
		if sub == nil {
			path := v.ConfigFileUsed()
			if path == "" {
				path = "(no config file found)"
			}
			err := fmt.Errorf("profile '%s' not found in config file '%s'", profileName, path)
			tempLogger.Error(err.Error())
			return cfg, tempLogger, err
		}
		if err := v.MergeConfigMap(sub.AllSettings()); err != nil {
			return cfg, tempLogger, fmt.Errorf("error merging profile '%s': %w", profileName, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return cfg, tempLogger, fmt.Errorf("error binding flag '--%s': %w", name, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		tempLogger.Error("Error unmarshalling configuration", slog.String("error", err.Error()))
		return cfg, tempLogger, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	if flags != nil {
		applyChangedFlags(&cfg, flags)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)
	cfg.Logger = handler
	cfg.Migrate.Logger = handler
	cfg.Migrate.AppVersion = appVersion
	cfg.Migrate.SourceFingerprint = cfg.HashSource + ":" + cfg.Hash
	if flags != nil {
		if noCache, err := flags.GetBool("no-cache"); err == nil && noCache {
			cfg.Migrate.CacheEnabled = false
		}
	}

	if err := validate(&cfg); err != nil {
		logger.Error(err.Error())
		return cfg, logger, err
	}

	logger.Debug("Configuration loaded",
		slog.String("configFile", cfg.ConfigFilePath),
		slog.String("profile", cfg.ProfileName),
		slog.String("hashSource", cfg.HashSource))
	return cfg, logger, nil
}

// applyChangedFlags makes explicitly set flags win over every other source, including
// for booleans and lists where viper's merge is unreliable.
func applyChangedFlags(cfg *Config, flags *pflag.FlagSet) {
	if flags.Changed("verbose") {
		cfg.Verbose, _ = flags.GetBool("verbose")
	}
	if flags.Changed("collapse-empty") {
		cfg.CollapseEmptyParagraph, _ = flags.GetBool("collapse-empty")
	}
	if flags.Changed("save-on-submit") {
		cfg.SaveOnSubmit, _ = flags.GetBool("save-on-submit")
	}
	if flags.Changed("no-tui") {
		cfg.NoTUI, _ = flags.GetBool("no-tui")
	}
	if flags.Changed("skip-editor") {
		cfg.SkipEditors, _ = flags.GetStringArray("skip-editor")
	}
	if flags.Changed("extension") {
		cfg.Migrate.Extensions, _ = flags.GetStringArray("extension")
	}
	if flags.Changed("ignore") {
		cfg.Migrate.IgnorePatterns, _ = flags.GetStringArray("ignore")
	}
	if flags.Changed("input") {
		cfg.Migrate.InputPath, _ = flags.GetString("input")
	}
	if flags.Changed("output") {
		cfg.Migrate.OutputPath, _ = flags.GetString("output")
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("hashSource", hashsource.KindGenerate)
	v.SetDefault("hash", "")
	v.SetDefault("editorId", DefaultEditorID)
	v.SetDefault("skipEditors", []string{lifecycle.DefaultSkipEditorID})
	v.SetDefault("collapseEmptyParagraph", false)
	v.SetDefault("saveOnSubmit", true)
	v.SetDefault("noTui", false)
	v.SetDefault("reportFormat", ReportFormatText)
	v.SetDefault("reportFile", "")

	v.SetDefault("migrate.mode", string(migrate.DefaultMode))
	v.SetDefault("migrate.concurrency", migrate.DefaultConcurrency)
	v.SetDefault("migrate.cache", migrate.DefaultCacheEnabled)
	v.SetDefault("migrate.extensions", migrate.DefaultExtensions)
	v.SetDefault("migrate.ignore", []string{})
	v.SetDefault("migrate.defaultEncoding", "")
	v.SetDefault("migrate.onError", string(migrate.DefaultOnErrorMode))
	v.SetDefault("migrate.cacheFormat", cache.DefaultFormat)
}

func validate(cfg *Config) error {
	cfg.HashSource = strings.ToLower(cfg.HashSource)
	allowedSources := []string{hashsource.KindStatic, hashsource.KindGenerate, hashsource.KindNone}
	if !slices.Contains(allowedSources, cfg.HashSource) {
		return fmt.Errorf("%w: invalid value '%s' for key 'hashSource' (flag --hash-source). Allowed: %v", ErrConfigValidation, cfg.HashSource, allowedSources)
	}
	if cfg.HashSource == hashsource.KindStatic && !marker.Valid(cfg.Hash) {
		return fmt.Errorf("%w: hashSource 'static' requires an alphanumeric 'hash' (flag --hash), got %q", ErrConfigValidation, cfg.Hash)
	}
	if cfg.EditorID == "" {
		return fmt.Errorf("%w: 'editorId' cannot be empty", ErrConfigValidation)
	}

	allowedModes := []migrate.Mode{migrate.ModeNormalize, migrate.ModeStrip, migrate.ModeReplace}
	if !slices.Contains(allowedModes, cfg.Migrate.Mode) {
		return fmt.Errorf("%w: invalid value '%s' for key 'migrate.mode' (flag --mode). Allowed: %v", ErrConfigValidation, cfg.Migrate.Mode, allowedModes)
	}
	allowedOnError := []migrate.OnErrorMode{migrate.OnErrorContinue, migrate.OnErrorStop}
	if !slices.Contains(allowedOnError, cfg.Migrate.OnErrorMode) {
		return fmt.Errorf("%w: invalid value '%s' for key 'migrate.onError' (flag --onError). Allowed: %v", ErrConfigValidation, cfg.Migrate.OnErrorMode, allowedOnError)
	}
	if cfg.Migrate.Concurrency < 0 {
		return fmt.Errorf("%w: invalid value '%d' for key 'migrate.concurrency' (flag --concurrency). Must be >= 0", ErrConfigValidation, cfg.Migrate.Concurrency)
	}
	allowedCache := []string{cache.FormatGob, cache.FormatJSON}
	if !slices.Contains(allowedCache, cfg.Migrate.CacheFormat) {
		return fmt.Errorf("%w: invalid value '%s' for key 'migrate.cacheFormat'. Allowed: %v", ErrConfigValidation, cfg.Migrate.CacheFormat, allowedCache)
	}
	allowedReports := []string{ReportFormatText, ReportFormatJSON, ReportFormatTOML}
	if !slices.Contains(allowedReports, cfg.ReportFormat) {
		return fmt.Errorf("%w: invalid value '%s' for key 'reportFormat' (flag --report-format). Allowed: %v", ErrConfigValidation, cfg.ReportFormat, allowedReports)
	}
	return nil
}

// ValidateMigrate checks the settings that only matter to a migration run. A static
// hash would give every unmarked field in the tree the same identifier, so it is only
// accepted in strip mode.
func (c Config) ValidateMigrate() error {
	if c.HashSource == hashsource.KindStatic && c.Migrate.Mode != migrate.ModeStrip {
		mode := c.Migrate.Mode
		if mode == "" {
			mode = migrate.DefaultMode
		}
		return fmt.Errorf("%w: hashSource 'static' cannot be used with migrate mode '%s'; use 'generate' or 'none'", ErrConfigValidation, mode)
	}
	return nil
}

// Source builds the hash source selected by the configuration.
func (c Config) Source() (hashsource.Source, error) {
	return hashsource.New(c.HashSource, c.Hash, nil)
}

// SessionOptions returns the lifecycle options for an editor session.
func (c Config) SessionOptions(src hashsource.Source) lifecycle.Options {
	return lifecycle.Options{
		Source:                 src,
		SkipEditorIDs:          c.SkipEditors,
		CollapseEmptyParagraph: c.CollapseEmptyParagraph,
		SaveOnSubmit:           c.SaveOnSubmit,
		Logger:                 c.Logger,
	}
}
