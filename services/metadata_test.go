package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"releasegate/testsupport"
	"releasegate/types"

	"github.com/go-flac/flacpicture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataReaderReadsCompliantFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "01. A - B.flac")
	testsupport.WriteFLAC(t, path, testsupport.CompliantFLAC())

	rec, err := NewMetadataReader().Read(path)
	require.NoError(t, err)

	assert.Equal(t, "01. A - B.flac", rec.Filename)
	assert.Equal(t, 44100, rec.SampleRateHz)
	assert.Equal(t, 2, rec.ChannelCount)
	assert.Equal(t, 24, rec.BitsPerSample)
	assert.True(t, rec.HasPicture(types.PictureTypeFrontCover))
	require.Len(t, rec.Pictures, 1)
	assert.Equal(t, "image/png", rec.Pictures[0].MIME)

	artist, ok := rec.Tags.First("artist")
	require.True(t, ok)
	assert.Equal(t, "A", artist)
	assert.True(t, rec.Tags.Has("TotalTracks"))
}

func TestMetadataReaderStreamProperties(t *testing.T) {
	spec := testsupport.CompliantFLAC()
	spec.SampleRate = 96000
	spec.Channels = 1
	spec.BitDepth = 16
	spec.PictureTypes = []flacpicture.PictureType{flacpicture.PictureTypeBackCover}

	path := filepath.Join(t.TempDir(), "02. A - C.flac")
	testsupport.WriteFLAC(t, path, spec)

	rec, err := NewMetadataReader().Read(path)
	require.NoError(t, err)
	assert.Equal(t, 96000, rec.SampleRateHz)
	assert.Equal(t, 1, rec.ChannelCount)
	assert.Equal(t, 16, rec.BitsPerSample)
	assert.False(t, rec.HasPicture(types.PictureTypeFrontCover))
	assert.True(t, rec.HasPicture(4))
}

func TestMetadataReaderSkipsMalformedComments(t *testing.T) {
	spec := testsupport.CompliantFLAC()
	spec.Comments = append(spec.Comments, "NOEQUALSSIGN")

	path := filepath.Join(t.TempDir(), "01. A - B.flac")
	testsupport.WriteFLAC(t, path, spec)

	rec, err := NewMetadataReader().Read(path)
	require.NoError(t, err)
	assert.False(t, rec.Tags.Has("NOEQUALSSIGN"))
	assert.Equal(t, 8, rec.Tags.Len())
}

func TestMetadataReaderErrors(t *testing.T) {
	dir := t.TempDir()

	notFLAC := filepath.Join(dir, "fake.flac")
	require.NoError(t, os.WriteFile(notFLAC, []byte("this is plainly not audio at all"), 0644))

	truncated := filepath.Join(dir, "truncated.flac")
	data := testsupport.FLACBytes(t, testsupport.CompliantFLAC())
	require.NoError(t, os.WriteFile(truncated, data[:20], 0644))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.flac")},
		{"not a flac container", notFLAC},
		{"truncated metadata", truncated},
	}

	reader := NewMetadataReader()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := reader.Read(tt.path)
			assert.Nil(t, rec)
			require.Error(t, err)

			var readErr *MetadataReadError
			require.True(t, errors.As(err, &readErr))
			assert.Equal(t, tt.path, readErr.Path)
			assert.NotNil(t, readErr.Err)
		})
	}
}

func TestIsAudioFile(t *testing.T) {
	exts := []string{".flac"}
	assert.True(t, isAudioFile("01. A - B.flac", exts))
	assert.True(t, isAudioFile("01. A - B.FLAC", exts))
	assert.False(t, isAudioFile("Cover.png", exts))
	assert.False(t, isAudioFile("flac", exts))
}
