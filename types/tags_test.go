package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagMapCaseInsensitiveLookup(t *testing.T) {
	m := NewTagMap()
	m.Add("ALBUMARTIST", "Various Artists")
	m.Add("Title", "Song")
	m.Add("title", "Alt Title")

	assert.True(t, m.Has("albumartist"))
	assert.True(t, m.Has("AlbumArtist"))
	assert.False(t, m.Has("genre"))

	first, ok := m.First("TITLE")
	require.True(t, ok)
	assert.Equal(t, "Song", first)
	assert.Equal(t, []string{"Song", "Alt Title"}, m.Get("title"))
	assert.Equal(t, 2, m.Len())
}

func TestTagMapKeepsInsertionOrder(t *testing.T) {
	m := NewTagMap()
	for _, k := range []string{"TRACKNUMBER", "artist", "Genre", "ARTIST", "date"} {
		m.Add(k, "x")
	}

	assert.Equal(t, []string{"tracknumber", "artist", "genre", "date"}, m.Keys())

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"tracknumber":["x"],"artist":["x","x"],"genre":["x"],"date":["x"]}`, string(data))
}

func TestTagMapNil(t *testing.T) {
	var m *TagMap

	assert.False(t, m.Has("artist"))
	assert.Nil(t, m.Get("artist"))
	_, ok := m.First("artist")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestComplianceProblemString(t *testing.T) {
	assert.Equal(t, "01. A - B.flac: No embedded front cover found",
		ComplianceProblem{File: "01. A - B.flac", Message: "No embedded front cover found"}.String())
	assert.Equal(t, "Cover.png not found in folder",
		ComplianceProblem{Message: "Cover.png not found in folder"}.String())
}

func TestReferenceManifest(t *testing.T) {
	m := NewReferenceManifest("02. B - C.flac", "01. A - B.flac", "01. A - B.flac")

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.Has("01. A - B.flac"))
	assert.False(t, m.Has("Cover.png"))
	assert.Equal(t, []string{"01. A - B.flac", "02. B - C.flac"}, m.Names())
}
