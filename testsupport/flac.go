package testsupport

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// FLACSpec describes the metadata of a synthetic FLAC file.
type FLACSpec struct {
	SampleRate   int
	Channels     int
	BitDepth     int
	PictureTypes []flacpicture.PictureType
	Comments     []string // raw "KEY=value" vorbis comments
}

// CompliantFLAC returns a FLACSpec that satisfies every release rule.
func CompliantFLAC() FLACSpec {
	return FLACSpec{
		SampleRate:   44100,
		Channels:     2,
		BitDepth:     24,
		PictureTypes: []flacpicture.PictureType{flacpicture.PictureTypeFrontCover},
		Comments: []string{
			"ARTIST=A",
			"TITLE=B",
			"ALBUM=Reflect and Improve",
			"DATE=2024",
			"GENRE=Electronic",
			"ALBUMARTIST=Various Artists",
			"TRACKNUMBER=1",
			"TOTALTRACKS=12",
		},
	}
}

// WithoutComment returns a copy of s minus every comment whose key matches.
func (s FLACSpec) WithoutComment(key string) FLACSpec {
	out := s
	out.Comments = nil
	prefix := key + "="
	for _, c := range s.Comments {
		if len(c) >= len(prefix) && equalFoldASCII(c[:len(prefix)], prefix) {
			continue
		}
		out.Comments = append(out.Comments, c)
	}
	return out
}

// WithComment returns a copy of s with one extra comment.
func (s FLACSpec) WithComment(key, value string) FLACSpec {
	out := s
	out.Comments = append(append([]string{}, s.Comments...), key+"="+value)
	return out
}

// FLACBytes encodes spec as the metadata section of a FLAC stream
// followed by a single fake frame header.
func FLACBytes(t testing.TB, spec FLACSpec) []byte {
	t.Helper()

	streamInfo := StreamInfoBlock(spec.SampleRate, spec.Channels, spec.BitDepth)
	blocks := []*flac.MetaDataBlock{&streamInfo}

	comments := flacvorbis.New()
	comments.Comments = append(comments.Comments, spec.Comments...)
	commentBlock := comments.Marshal()
	blocks = append(blocks, &commentBlock)

	for _, pt := range spec.PictureTypes {
		pic := &flacpicture.MetadataBlockPicture{
			PictureType: pt,
			MIME:        "image/png",
			Description: "cover",
			Width:       1,
			Height:      1,
			ColorDepth:  32,
			ImageData:   []byte{0x89, 'P', 'N', 'G'},
		}
		picBlock := pic.Marshal()
		blocks = append(blocks, &picBlock)
	}

	file := &flac.File{Meta: blocks, Frames: flac.FrameData{0xFF, 0xF8, 0x69, 0x08}}
	return file.Marshal()
}

// WriteFLAC writes a synthetic FLAC file to path.
func WriteFLAC(t testing.TB, path string, spec FLACSpec) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, FLACBytes(t, spec), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// StreamInfoBlock packs a STREAMINFO metadata block.
func StreamInfoBlock(sampleRate, channels, bitDepth int) flac.MetaDataBlock {
	data := make([]byte, 34)
	binary.BigEndian.PutUint16(data[0:2], 4096)
	binary.BigEndian.PutUint16(data[2:4], 4096)

	// 20 bits sample rate, 3 bits channels-1, 5 bits bits-per-sample-1, 36 bits sample count.
	sr := uint32(sampleRate)
	ch := uint32(channels - 1)
	bps := uint32(bitDepth - 1)
	const totalSamples = uint64(44100 * 180)

	data[10] = byte(sr >> 12)
	data[11] = byte(sr >> 4)
	data[12] = byte(sr&0x0F)<<4 | byte(ch&0x07)<<1 | byte(bps>>4&0x01)
	data[13] = byte(bps&0x0F)<<4 | byte(totalSamples>>32&0x0F)
	binary.BigEndian.PutUint32(data[14:18], uint32(totalSamples))

	return flac.MetaDataBlock{Type: flac.StreamInfo, Data: data}
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
