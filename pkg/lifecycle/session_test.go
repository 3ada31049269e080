package lifecycle_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/test-moodle/moodle-tiny-translations/internal/testutil"
	"github.com/test-moodle/moodle-tiny-translations/pkg/editor"
	"github.com/test-moodle/moodle-tiny-translations/pkg/hashsource"
	"github.com/test-moodle/moodle-tiny-translations/pkg/lifecycle"
	"github.com/test-moodle/moodle-tiny-translations/pkg/marker"
)

func encode(t *testing.T, hash string) string {
	t.Helper()
	enc, err := marker.Encode(hash)
	require.NoError(t, err)
	return enc
}

func bind(t *testing.T, content string, opts lifecycle.Options, docOpts ...editor.Option) (*editor.Document, *lifecycle.Session) {
	t.Helper()
	doc, err := editor.NewDocument("id_summary_editor", content, docOpts...)
	require.NoError(t, err)
	s, err := lifecycle.Bind(doc, opts)
	require.NoError(t, err)
	require.NoError(t, doc.Init())
	return doc, s
}

func TestSession_InitInsertsMarkerFromEditorOption(t *testing.T) {
	doc, s := bind(t, "<p>Hello</p>", lifecycle.DefaultOptions(), editor.WithOption(hashsource.DefaultOptionName, "opt42"))

	assert.Equal(t, "opt42", s.Hash())
	assert.Equal(t, encode(t, "opt42")+"<p>Hello</p>", doc.GetContent())
	assert.Equal(t, encode(t, "opt42"), s.Marker())
}

func TestSession_InitKeepsExistingHash(t *testing.T) {
	doc, s := bind(t, `<span data-translationhash="old1"></span><p>Hello</p>`, lifecycle.Options{Source: hashsource.Static("new1")})

	assert.Equal(t, "old1", s.Hash())
	assert.Equal(t, encode(t, "old1")+"<p>Hello</p>", doc.GetContent())
}

func TestSession_NoHashLeavesFieldAlone(t *testing.T) {
	doc, s := bind(t, "<p>Hello</p>", lifecycle.Options{Source: hashsource.None(), SaveOnSubmit: true})

	assert.Empty(t, s.Hash())
	assert.Empty(t, s.Marker())
	assert.Equal(t, "<p>Hello</p>", doc.GetContent())

	require.NoError(t, doc.SetContent(""))
	saved, err := doc.Submit()
	require.NoError(t, err)
	assert.Empty(t, saved, "nothing is reinserted for an unmarked field")
}

func TestSession_SubmitReinsertsDeletedMarker(t *testing.T) {
	doc, s := bind(t, "<p>Hello</p>", lifecycle.Options{Source: hashsource.Static("h1"), SaveOnSubmit: true})
	require.Equal(t, "h1", s.Hash())

	require.NoError(t, doc.SetContent("<p>Edited</p>"))
	saved, err := doc.Submit()
	require.NoError(t, err)
	assert.Equal(t, encode(t, "h1")+"<p>Edited</p>", saved)
}

func TestSession_SubmitCollapsesMarkerOnlyField(t *testing.T) {
	doc, _ := bind(t, "", lifecycle.Options{Source: hashsource.Static("h1"), SaveOnSubmit: true})
	require.Equal(t, encode(t, "h1"), doc.GetContent())

	saved, err := doc.Submit()
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, doc.GetContent())
}

func TestSession_CollapseEmptyParagraph(t *testing.T) {
	tests := []struct {
		name     string
		collapse bool
		want     func(t *testing.T) string
	}{
		{"disabled keeps placeholder", false, func(t *testing.T) string { return encode(t, "h1") + "<p><br/></p>" }},
		{"enabled stores empty", true, func(*testing.T) string { return "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, _ := bind(t, "<p><br/></p>", lifecycle.Options{
				Source:                 hashsource.Static("h1"),
				SaveOnSubmit:           true,
				CollapseEmptyParagraph: tt.collapse,
			})
			saved, err := doc.Submit()
			require.NoError(t, err)
			assert.Equal(t, tt.want(t), saved)
		})
	}
}

func TestSession_SubmitWithoutSave(t *testing.T) {
	doc, _ := bind(t, "<p>Hello</p>", lifecycle.Options{Source: hashsource.Static("h1")})

	saved, err := doc.Submit()
	require.NoError(t, err)
	assert.Empty(t, saved)
	assert.Empty(t, doc.Saved())
}

func TestSession_PasteStripsMarkers(t *testing.T) {
	doc, _ := bind(t, "<p>Hello</p>", lifecycle.Options{Source: hashsource.Static("h1")})

	pasted := encode(t, "foreign9") + "<p>Copied</p>"
	require.NoError(t, doc.Paste(pasted))

	got := doc.GetContent()
	assert.Equal(t, encode(t, "h1")+"<p>Hello</p><p>Copied</p>", got)
	var hashes []string
	for h := range marker.Decode(got) {
		hashes = append(hashes, h)
	}
	assert.Equal(t, []string{"h1"}, hashes)
}

func TestSession_Replace(t *testing.T) {
	calls := 0
	src := hashsource.Func(func() (string, bool) {
		calls++
		if calls == 1 {
			return "first1", true
		}
		return "second2", true
	})
	doc, s := bind(t, "<p>Hello</p>", lifecycle.Options{Source: src, SaveOnSubmit: true})
	require.Equal(t, "first1", s.Hash())

	hash, err := s.Replace()
	require.NoError(t, err)
	assert.Equal(t, "second2", hash)
	assert.Equal(t, "second2", s.Hash())
	assert.Equal(t, encode(t, "second2")+"<p>Hello</p>", doc.GetContent())

	require.NoError(t, doc.SetContent("<p>Hello</p>"))
	saved, err := doc.Submit()
	require.NoError(t, err)
	assert.Equal(t, encode(t, "second2")+"<p>Hello</p>", saved, "submit reinserts the replaced hash")
}

func TestSession_ReplaceWithoutHashKeepsMarker(t *testing.T) {
	src := new(testutil.MockHashSource)
	src.On("Hash").Return("keep1", true).Once()
	src.On("Hash").Return("", false)

	doc, s := bind(t, "<p>Hello</p>", lifecycle.Options{Source: src})
	before := doc.GetContent()

	hash, err := s.Replace()
	require.NoError(t, err)
	assert.Equal(t, "keep1", hash)
	assert.Equal(t, before, doc.GetContent())
}

func TestBind_SkipsExcludedEditor(t *testing.T) {
	doc, err := editor.NewDocument(lifecycle.DefaultSkipEditorID, "<p>Translated</p>")
	require.NoError(t, err)

	_, err = lifecycle.Bind(doc, lifecycle.DefaultOptions())
	require.ErrorIs(t, err, lifecycle.ErrEditorSkipped)

	require.NoError(t, doc.Init())
	assert.Equal(t, "<p>Translated</p>", doc.GetContent())
}

func TestSession_SetContentFailure(t *testing.T) {
	ed := new(testutil.MockEditor)
	ed.On("ID").Return("id_field")
	ed.On("GetContent").Return("<p>Hello</p>")
	ed.On("SetContent", mock.Anything).Return(errors.New("read-only"))

	s, err := lifecycle.Bind(ed, lifecycle.Options{Source: hashsource.Static("h1")})
	require.NoError(t, err)

	_, err = ed.Fire(editor.EventInit, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only")
	assert.Equal(t, "h1", s.Hash())
	ed.AssertExpectations(t)
}

func TestSession_SubmitSaveFailure(t *testing.T) {
	enc := encode(t, "h1")
	ed := new(testutil.MockEditor)
	ed.On("ID").Return("id_field")
	ed.On("GetContent").Return(enc + "<p>Hello</p>")
	ed.On("Save").Return(errors.New("form gone")).Once()

	_, err := lifecycle.Bind(ed, lifecycle.Options{Source: hashsource.Static("h1"), SaveOnSubmit: true})
	require.NoError(t, err)
	_, err = ed.Fire(editor.EventInit, "")
	require.NoError(t, err)

	_, err = ed.Fire(editor.EventSubmit, "")
	assert.EqualError(t, err, "form gone")
	ed.AssertExpectations(t)
}
