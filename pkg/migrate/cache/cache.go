// Package cache keeps an index of migrated fields so unchanged inputs are not rewritten
// (and markerless fields do not receive a new hash) on every run.
package cache

import (
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"
)

// FileName is the name of the index file written next to the migration output.
const FileName = ".translationhash.cache"

// SchemaVersion is bumped whenever Entry or the file layout changes incompatibly.
const SchemaVersion = "1"

// Serialization formats.
const (
	FormatGob     = "gob"
	FormatJSON    = "json"
	DefaultFormat = FormatGob
)

var (
	// ErrLoad indicates the index file exists but could not be opened. Corrupt or
	// outdated files are not errors; they load as an empty index.
	ErrLoad = errors.New("failed to load cache index")
	// ErrPersist indicates the index could not be written.
	ErrPersist = errors.New("failed to persist cache index")
)

// Entry is the cached state of one input file.
type Entry struct {
	SourceHash string `json:"sourceHash"`
	ConfigHash string `json:"configHash"`
	OutputHash string `json:"outputHash"`
}

// Header identifies the writer of an index file.
type Header struct {
	SchemaVersion string `json:"schemaVersion"`
	ToolVersion   string `json:"toolVersion"`
}

type jsonFile struct {
	Header  Header           `json:"header"`
	Entries map[string]Entry `json:"entries"`
}

// Manager is the cache used by the migration runner. Check and Update must be safe for
// concurrent use by workers once Load has returned.
type Manager interface {
	Load(path string) error
	Check(relPath, sourceHash, configHash string) (hit bool, outputHash string)
	Update(relPath, sourceHash, configHash, outputHash string) error
	Persist(path string) error
}

// Hash returns the hex blake3 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type fileManager struct {
	mu          sync.RWMutex
	index       map[string]Entry
	toolVersion string
	format      string
	logger      *slog.Logger
}

// NewFileManager returns a Manager persisted to a local file in the given format.
// Entries written by another toolVersion are discarded on Load.
func NewFileManager(handler slog.Handler, toolVersion, format string) (Manager, error) {
	if format == "" {
		format = DefaultFormat
	}
	if format != FormatGob && format != FormatJSON {
		return nil, fmt.Errorf("unsupported cache format %q", format)
	}
	if handler == nil {
		handler = slog.NewTextHandler(io.Discard, nil)
	}
	return &fileManager{
		index:       map[string]Entry{},
		toolVersion: toolVersion,
		format:      format,
		logger:      slog.New(handler).With(slog.String("component", "cache")),
	}, nil
}

// Load implements Manager.
func (m *fileManager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index = map[string]Entry{}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			m.logger.Debug("Cache file not found, starting empty", slog.String("path", path))
			return nil
		}
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	header, entries, err := m.decode(f)
	if err != nil {
		m.logger.Warn("Cache file unreadable, ignoring it", slog.String("path", path), slog.String("error", err.Error()))
		return nil
	}
	if header.SchemaVersion != SchemaVersion || header.ToolVersion != m.toolVersion {
		m.logger.Info("Cache written by a different version, ignoring it",
			slog.String("schemaVersion", header.SchemaVersion),
			slog.String("toolVersion", header.ToolVersion))
		return nil
	}
	if entries != nil {
		m.index = entries
	}
	m.logger.Debug("Cache loaded", slog.String("path", path), slog.Int("entries", len(m.index)))
	return nil
}

func (m *fileManager) decode(r io.Reader) (Header, map[string]Entry, error) {
	if m.format == FormatJSON {
		var jf jsonFile
		if err := json.NewDecoder(r).Decode(&jf); err != nil {
			return Header{}, nil, err
		}
		return jf.Header, jf.Entries, nil
	}
	dec := gob.NewDecoder(r)
	var h Header
	if err := dec.Decode(&h); err != nil {
		return Header{}, nil, err
	}
	entries := map[string]Entry{}
	if err := dec.Decode(&entries); err != nil {
		return Header{}, nil, err
	}
	return h, entries, nil
}

// Check implements Manager.
func (m *fileManager) Check(relPath, sourceHash, configHash string) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.index[relPath]
	if !ok || e.SourceHash != sourceHash || e.ConfigHash != configHash {
		return false, ""
	}
	return true, e.OutputHash
}

// Update implements Manager.
func (m *fileManager) Update(relPath, sourceHash, configHash, outputHash string) error {
	if relPath == "" {
		return errors.New("cache update requires a path")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[relPath] = Entry{SourceHash: sourceHash, ConfigHash: configHash, OutputHash: outputHash}
	return nil
}

// Persist implements Manager. The index is written to a temporary file in the target
// directory and renamed over path.
func (m *fileManager) Persist(path string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	header := Header{SchemaVersion: SchemaVersion, ToolVersion: m.toolVersion}
	if m.format == FormatJSON {
		enc := json.NewEncoder(tmp)
		enc.SetIndent("", "  ")
		err = enc.Encode(jsonFile{Header: header, Entries: m.index})
	} else {
		enc := gob.NewEncoder(tmp)
		if err = enc.Encode(header); err == nil {
			err = enc.Encode(m.index)
		}
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	m.logger.Debug("Cache persisted", slog.String("path", path), slog.Int("entries", len(m.index)))
	return nil
}

// NoOp is a Manager that never hits and stores nothing.
type NoOp struct{}

// Load implements Manager.
func (NoOp) Load(string) error { return nil }

// Check implements Manager.
func (NoOp) Check(string, string, string) (bool, string) { return false, "" }

// Update implements Manager.
func (NoOp) Update(string, string, string, string) error { return nil }

// Persist implements Manager.
func (NoOp) Persist(string) error { return nil }
