// Package testutil provides testify mocks for the interfaces consumed by the marker
// lifecycle and the migration runner, plus small filesystem helpers for tests.
package testutil

import (
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/test-moodle/moodle-tiny-translations/pkg/editor"
	"github.com/test-moodle/moodle-tiny-translations/pkg/migrate"
)

// MockHashSource mocks hashsource.Source.
// Configure with .On("Hash").Return("abc", true).
type MockHashSource struct {
	mock.Mock
}

// Hash mocks the Hash method.
func (m *MockHashSource) Hash() (string, bool) {
	args := m.Called()
	return args.String(0), args.Bool(1)
}

// MockEditor mocks editor.Editor. Handlers registered through On are recorded rather
// than mocked so tests can raise events with Fire.
type MockEditor struct {
	mock.Mock

	mu       sync.Mutex
	handlers map[editor.EventName][]editor.Handler
}

// ID mocks the ID method.
func (m *MockEditor) ID() string {
	return m.Called().String(0)
}

// GetContent mocks the GetContent method.
func (m *MockEditor) GetContent() string {
	return m.Called().String(0)
}

// SetContent mocks the SetContent method.
func (m *MockEditor) SetContent(html string) error {
	return m.Called(html).Error(0)
}

// Save mocks the Save method.
func (m *MockEditor) Save() error {
	return m.Called().Error(0)
}

// Option mocks the Option method.
func (m *MockEditor) Option(name string) (string, bool) {
	args := m.Called(name)
	return args.String(0), args.Bool(1)
}

// On records h for Fire.
func (m *MockEditor) On(name editor.EventName, h editor.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handlers == nil {
		m.handlers = map[editor.EventName][]editor.Handler{}
	}
	m.handlers[name] = append(m.handlers[name], h)
}

// Fire runs the handlers recorded for name, stopping at the first error.
func (m *MockEditor) Fire(name editor.EventName, content string) (*editor.Event, error) {
	m.mu.Lock()
	hs := append([]editor.Handler(nil), m.handlers[name]...)
	m.mu.Unlock()
	ev := &editor.Event{Name: name, Content: content}
	for _, h := range hs {
		if err := h(ev); err != nil {
			return ev, err
		}
	}
	return ev, nil
}

// MockHooks mocks migrate.Hooks. Hooks are invoked concurrently; testify's Mock is
// safe for that, but any extra state a test records must be guarded by the test.
type MockHooks struct {
	mock.Mock
}

// OnFileDiscovered mocks the OnFileDiscovered method.
func (m *MockHooks) OnFileDiscovered(path string) error {
	return m.Called(path).Error(0)
}

// OnFileStatusUpdate mocks the OnFileStatusUpdate method.
func (m *MockHooks) OnFileStatusUpdate(path string, status migrate.Status, message string, duration time.Duration) error {
	return m.Called(path, status, message, duration).Error(0)
}

// OnRunComplete mocks the OnRunComplete method.
func (m *MockHooks) OnRunComplete(report migrate.Report) error {
	return m.Called(report).Error(0)
}

// MockEncodingHandler mocks encoding.Handler.
type MockEncodingHandler struct {
	mock.Mock
}

// DetectAndDecode mocks the DetectAndDecode method.
func (m *MockEncodingHandler) DetectAndDecode(content []byte) ([]byte, string, bool, error) {
	args := m.Called(content)
	out, _ := args.Get(0).([]byte)
	return out, args.String(1), args.Bool(2), args.Error(3)
}

// IsBinary mocks the IsBinary method.
func (m *MockEncodingHandler) IsBinary(content []byte) bool {
	return m.Called(content).Bool(0)
}

// MockCacheManager mocks cache.Manager.
type MockCacheManager struct {
	mock.Mock
}

// Load mocks the Load method.
func (m *MockCacheManager) Load(path string) error {
	return m.Called(path).Error(0)
}

// Check mocks the Check method.
func (m *MockCacheManager) Check(relPath, sourceHash, configHash string) (bool, string) {
	args := m.Called(relPath, sourceHash, configHash)
	return args.Bool(0), args.String(1)
}

// Update mocks the Update method.
func (m *MockCacheManager) Update(relPath, sourceHash, configHash, outputHash string) error {
	return m.Called(relPath, sourceHash, configHash, outputHash).Error(0)
}

// Persist mocks the Persist method.
func (m *MockCacheManager) Persist(path string) error {
	return m.Called(path).Error(0)
}
