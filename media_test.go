package gomedia

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGenerator_GeneratePath(t *testing.T) {
	tests := []struct {
		name     string
		id       int64
		context  string
		expected string
	}{
		{name: "should shard first bucket", id: 10, context: "default", expected: "default/0001/01"},
		{name: "should shard large id", id: 1023456, context: "default", expected: "default/0011/24"},
		{name: "should shard second level boundary", id: 1000, context: "news", expected: "news/0001/02"},
		{name: "should shard first level boundary", id: 100000, context: "news", expected: "news/0002/01"},
		{name: "should keep empty context", id: 99999, context: "", expected: "/0001/100"},
	}

	g := NewDefaultGenerator()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Media{ID: tt.id, Context: tt.context}

			got := g.GeneratePath(m)

			assert.Equal(t, tt.expected, got, "expected path to match")
			assert.Equal(t, got, g.GeneratePath(m.Clone()), "expected path to be deterministic")
		})
	}
}

func TestFormatName(t *testing.T) {
	contexts := []string{"default", "news", ""}
	formats := []string{"small", "default_small", "news_big", FormatAdmin, FormatReference, "_x"}

	for _, ctx := range contexts {
		for _, f := range formats {
			m := &Media{Context: ctx}
			once := FormatName(m, f)
			assert.Equal(t, once, FormatName(m, once), "expected idempotence for %q in %q", f, ctx)
		}
	}

	m := &Media{Context: "default"}
	assert.Equal(t, "default_small", FormatName(m, "small"), "expected prefix to be added")
	assert.Equal(t, "default_small", FormatName(m, "default_small"), "expected prefixed name to pass through")
	assert.Equal(t, FormatAdmin, FormatName(m, FormatAdmin), "expected admin to pass through")
	assert.Equal(t, FormatReference, FormatName(m, FormatReference), "expected reference to pass through")
}

func TestBelongsToContext(t *testing.T) {
	m := &Media{Context: "news"}

	assert.True(t, BelongsToContext(m, "news_small"), "expected own context format")
	assert.True(t, BelongsToContext(m, FormatAdmin), "expected admin format")
	assert.False(t, BelongsToContext(m, "default_small"), "expected foreign context format to be excluded")
	assert.False(t, BelongsToContext(m, "newsletter_small"), "expected longer context name to be excluded")
}

func TestMedia_SetBinaryContent(t *testing.T) {
	m := &Media{ProviderReference: AssignedReference("old.jpg")}

	m.SetBinaryContent(Text("/tmp/new.jpg"))

	assert.Equal(t, "old.jpg", m.PreviousProviderReference(), "expected previous reference to be kept")
	assert.False(t, m.ProviderReference.IsAssigned(), "expected reference to be reset")
	assert.Equal(t, Text("/tmp/new.jpg"), m.BinaryContent(), "expected content to be set")

	m.ResetBinaryContent()
	assert.Nil(t, m.BinaryContent(), "expected content to be cleared")
}

func TestMedia_Extension(t *testing.T) {
	tests := []struct {
		name      string
		reference Reference
		expected  string
	}{
		{name: "should return extension", reference: AssignedReference("abc.jpeg"), expected: "jpeg"},
		{name: "should strip query string", reference: AssignedReference("https://i.ytimg.com/vi/x/hq.jpg?v=1"), expected: "jpg"},
		{name: "should strip fragment", reference: AssignedReference("file.png#top"), expected: "png"},
		{name: "should return empty on missing reference", reference: MissingReference(), expected: ""},
		{name: "should return empty without extension", reference: AssignedReference("BDYAbAtaDzA"), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Media{ProviderReference: tt.reference}
			assert.Equal(t, tt.expected, m.Extension(), "expected extension to match")
		})
	}
}

func TestReference(t *testing.T) {
	assert.Equal(t, ReferenceUnset, AssignedReference("").State(), "expected empty value to stay unset")
	assert.Equal(t, ReferenceMissing, MissingReference().State(), "expected missing state")

	v, ok := AssignedReference("a.jpg").Value()
	assert.True(t, ok, "expected assigned reference")
	assert.Equal(t, "a.jpg", v, "expected value")

	_, ok = MissingReference().Value()
	assert.False(t, ok, "expected missing reference to carry no value")
}

func TestMedia_Clone(t *testing.T) {
	m := &Media{ID: 3, ProviderMetadata: map[string]any{"a": "b"}}

	c := m.Clone()
	c.SetMetadataValue("a", "c")

	assert.Equal(t, "b", m.MetadataString("a", ""), "expected original metadata to be untouched")
	assert.Equal(t, int64(3), c.ID, "expected id to be copied")
}

func TestOpenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	f, err := OpenFile(path)
	require.NoError(t, err, "expected existing file to open")
	assert.Equal(t, "note.txt", f.Filename(), "expected base name")

	size, err := f.FileSize()
	assert.NoError(t, err, "expected size")
	assert.Equal(t, int64(11), size, "expected size to match")

	mime, err := f.MimeType()
	assert.NoError(t, err, "expected mime type")
	assert.Equal(t, "text/plain", mime, "expected sniffed mime type without parameters")

	_, err = OpenFile(filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, ErrFileNotFound, "expected missing file error")
}

func TestRequestBody_Extension(t *testing.T) {
	body := &RequestBody{Body: []byte("{}"), ContentType: "image/png; charset=binary"}
	assert.Equal(t, "png", body.Extension(), "expected extension from declared content type")
}

func TestErrorElement(t *testing.T) {
	errs := &ErrorElement{}
	assert.NoError(t, errs.Err(), "expected no error without violations")

	errs.AddViolation("binaryContent", "Invalid mime type : %type%", map[string]string{"%type%": "text/plain"})

	assert.True(t, errs.HasViolations(), "expected violations")
	assert.EqualError(t, errs.Err(), "binaryContent: Invalid mime type : text/plain", "expected rendered message")
}
