package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullSidecar(t *testing.T) {
	content := "https://example.com/origin\n" +
		"go, search, vectors\n" +
		"author:Ada Lovelace\n" +
		"project: lodestone \n"

	meta := Parse(content)

	assert.Equal(t, "https://example.com/origin", meta[KeySourceURL])
	assert.Equal(t, "go,search,vectors", meta[KeyTags])
	assert.Equal(t, "Ada Lovelace", meta["author"])
	assert.Equal(t, "lodestone", meta["project"])
}

func TestParse_EmptyURLLine(t *testing.T) {
	meta := Parse("\nalpha,beta\nkey:value\n")

	assert.NotContains(t, meta, KeySourceURL)
	assert.Equal(t, "alpha,beta", meta[KeyTags])
	assert.Equal(t, "value", meta["key"])
}

func TestParse_DuplicateKeyKeepsLast(t *testing.T) {
	meta := Parse("\n\nauthor:first\nauthor:second\n")

	assert.Equal(t, "second", meta["author"])
}

func TestParse_ValueWithColon(t *testing.T) {
	meta := Parse("\n\nlink:https://example.com/page\n")

	assert.Equal(t, "https://example.com/page", meta["link"])
}

func TestParse_MalformedLinesSkipped(t *testing.T) {
	meta := Parse("\n\nno separator here\n:empty key\ngood:yes\n")

	assert.Equal(t, "yes", meta["good"])
	assert.NotContains(t, meta, "")
	assert.Len(t, meta, 1)
}

func TestParse_SingleLine(t *testing.T) {
	meta := Parse("https://example.com")

	assert.Equal(t, "https://example.com", meta[KeySourceURL])
	assert.Len(t, meta, 1)
}

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse(""))
}

func TestMerge_SidecarWins(t *testing.T) {
	extracted := map[string]string{"title": "Extracted Title", "author": "Parser"}
	sc := map[string]string{"author": "Human", "tags": "notes"}

	merged := Merge(extracted, sc)

	assert.Equal(t, "Extracted Title", merged["title"])
	assert.Equal(t, "Human", merged["author"])
	assert.Equal(t, "notes", merged["tags"])
}

func TestMerge_NilSidecar(t *testing.T) {
	extracted := map[string]string{"title": "x"}

	assert.Equal(t, extracted, Merge(extracted, nil))
}

func TestReader_Read(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "notes.txt")

	require.NoError(t, os.WriteFile(source+Suffix, []byte("https://src\n\ncustom:v\n"), 0600))

	meta, err := NewReader().Read(source)
	require.NoError(t, err)
	assert.Equal(t, "https://src", meta[KeySourceURL])
	assert.Equal(t, "v", meta["custom"])
}

func TestReader_MissingSidecarIsNotAnError(t *testing.T) {
	meta, err := NewReader().Read(filepath.Join(t.TempDir(), "absent.txt"))
	require.NoError(t, err)
	assert.Nil(t, meta)
}
