package hashsource_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
)

type options map[string]string

func (o options) Option(name string) (string, bool) {
	v, ok := o[name]
	return v, ok
}

func TestStatic(t *testing.T) {
	h, ok := hashsource.Static("abc123").Hash()
	assert.True(t, ok)
	assert.Equal(t, "abc123", h)

	_, ok = hashsource.Static("").Hash()
	assert.False(t, ok)
	_, ok = hashsource.None().Hash()
	assert.False(t, ok)
}

func TestGenerator_ProducesValidUniqueHashes(t *testing.T) {
	src := hashsource.Generator()
	seen := map[string]bool{}
	for range 50 {
		h, ok := src.Hash()
		require.True(t, ok)
		assert.Len(t, h, 32)
		assert.True(t, marker.Valid(h), "generated hash %q must be a valid marker hash", h)
		assert.False(t, seen[h], "hash %q generated twice", h)
		seen[h] = true
	}
}

func TestFromOption(t *testing.T) {
	opts := options{hashsource.DefaultOptionName: "fromopt1", "other": ""}

	h, ok := hashsource.FromOption(opts, "").Hash()
	assert.True(t, ok)
	assert.Equal(t, "fromopt1", h)

	_, ok = hashsource.FromOption(opts, "other").Hash()
	assert.False(t, ok, "empty option value means no marker")

	_, ok = hashsource.FromOption(opts, "missing").Hash()
	assert.False(t, ok)
}

func TestFunc(t *testing.T) {
	calls := 0
	src := hashsource.Func(func() (string, bool) {
		calls++
		return "f1", true
	})
	h, ok := src.Hash()
	assert.True(t, ok)
	assert.Equal(t, "f1", h)
	assert.Equal(t, 1, calls)
}

func TestNew(t *testing.T) {
	src, err := hashsource.New("static", "s1", nil)
	require.NoError(t, err)
	h, _ := src.Hash()
	assert.Equal(t, "s1", h)

	src, err = hashsource.New("GENERATE", "", nil)
	require.NoError(t, err)
	_, ok := src.Hash()
	assert.True(t, ok)

	src, err = hashsource.New("", "", nil)
	require.NoError(t, err)
	_, ok = src.Hash()
	assert.False(t, ok)

	src, err = hashsource.New("option", "", options{hashsource.DefaultOptionName: "o1"})
	require.NoError(t, err)
	h, _ = src.Hash()
	assert.Equal(t, "o1", h)

	_, err = hashsource.New("option", "", nil)
	assert.ErrorIs(t, err, hashsource.ErrUnknownKind)

	_, err = hashsource.New("random", "", nil)
	assert.ErrorIs(t, err, hashsource.ErrUnknownKind)
}
