package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"releasegate/types"

	"github.com/dhowden/tag"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// MetadataReadError reports an audio file whose container metadata could not be read.
type MetadataReadError struct {
	Path string
	Err  error
}

func (e *MetadataReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *MetadataReadError) Unwrap() error {
	return e.Err
}

// MetadataReader extracts the container metadata of a single audio file
type MetadataReader interface {
	Read(path string) (*types.AudioFileRecord, error)
}

// flacReader implements MetadataReader for FLAC containers
type flacReader struct{}

// NewMetadataReader creates a FLAC metadata reader
func NewMetadataReader() MetadataReader {
	return &flacReader{}
}

// Read opens path and builds its AudioFileRecord. Every failure is a *MetadataReadError.
func (r *flacReader) Read(path string) (*types.AudioFileRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &MetadataReadError{Path: path, Err: err}
	}
	defer file.Close()

	_, fileType, err := tag.Identify(file)
	if err != nil {
		return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("unrecognised container: %w", err)}
	}
	if fileType != tag.FLAC {
		if fileType == tag.UnknownFileType {
			fileType = "unknown"
		}
		return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("not a FLAC container (%s)", fileType)}
	}

	// Only the metadata blocks are parsed; audio frames are never read.
	stream, err := flac.ParseMetadata(file)
	if err != nil {
		return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("parse metadata blocks: %w", err)}
	}

	info, err := stream.GetStreamInfo()
	if err != nil {
		return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("read stream info: %w", err)}
	}

	record := &types.AudioFileRecord{
		Filename:      filepath.Base(path),
		SampleRateHz:  info.SampleRate,
		ChannelCount:  info.ChannelCount,
		BitsPerSample: info.BitDepth,
		Tags:          types.NewTagMap(),
	}

	for _, block := range stream.Meta {
		switch block.Type {
		case flac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("parse picture block: %w", err)}
			}
			record.Pictures = append(record.Pictures, types.Picture{
				TypeCode: int(pic.PictureType),
				MIME:     pic.MIME,
			})

		case flac.VorbisComment:
			comments, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, &MetadataReadError{Path: path, Err: fmt.Errorf("parse vorbis comments: %w", err)}
			}
			for _, comment := range comments.Comments {
				key, value, ok := strings.Cut(comment, "=")
				if !ok {
					// a comment without a field name cannot satisfy any tag rule
					continue
				}
				record.Tags.Add(key, value)
			}
		}
	}

	return record, nil
}

// isAudioFile reports whether name carries one of the audio extensions (case-insensitive)
func isAudioFile(name string, extensions []string) bool {
	ext := filepath.Ext(name)
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
