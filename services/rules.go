package services

import (
	"fmt"
	"regexp"
	"strings"

	"releasegate/types"
)

// trackFilenamePattern matches "NN. Artist - Title.ext"
var trackFilenamePattern = regexp.MustCompile(`^(\d{2})\. (.+?) - (.+)\.([^.]+)$`)

type requiredTag struct {
	key   string
	label string
}

var requiredTags = []requiredTag{
	{"artist", "Artist (ARTIST)"},
	{"title", "Title (TITLE)"},
	{"album", "Album (ALBUM)"},
	{"date", "Date (DATE)"},
	{"genre", "Genre (GENRE)"},
	{"albumartist", "Album Artist (ALBUMARTIST)"},
	{"tracknumber", "Track Number (TRACKNUMBER)"},
}

// RuleSet holds the expected values the rule engine checks against
type RuleSet struct {
	SampleRateHz    int
	Channels        int
	BitsPerSample   int
	AlbumArtist     string
	AudioExtensions []string
}

// DefaultRuleSet returns the release conventions: 44.1 kHz, stereo, 24 bit,
// compilation album artist, FLAC tracks.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		SampleRateHz:    44100,
		Channels:        2,
		BitsPerSample:   24,
		AlbumArtist:     "Various Artists",
		AudioExtensions: []string{".flac"},
	}
}

// Rule inspects one record and returns problem messages
type Rule func(rec *types.AudioFileRecord) []string

// RuleEngine evaluates the fixed, ordered rule list against audio file records
type RuleEngine struct {
	set   RuleSet
	rules []Rule
}

// NewRuleEngine creates a rule engine for the given expectations
func NewRuleEngine(set RuleSet) *RuleEngine {
	e := &RuleEngine{set: set}
	e.rules = []Rule{
		e.checkFilename,
		e.checkSampleRate,
		e.checkChannels,
		e.checkBitDepth,
		checkFrontCover,
		checkRequiredTags,
		e.checkAlbumArtist,
		checkTrackTotal,
	}
	return e
}

// Evaluate runs every rule in order. Rules never short-circuit each other.
func (e *RuleEngine) Evaluate(rec *types.AudioFileRecord) []types.ComplianceProblem {
	var problems []types.ComplianceProblem
	for _, rule := range e.rules {
		for _, msg := range rule(rec) {
			problems = append(problems, types.ComplianceProblem{File: rec.Filename, Message: msg})
		}
	}
	return problems
}

// MatchesTrackFilename reports whether name follows "NN. Artist - Title.<audio extension>"
func (e *RuleEngine) MatchesTrackFilename(name string) bool {
	m := trackFilenamePattern.FindStringSubmatch(name)
	if m == nil {
		return false
	}
	if strings.TrimSpace(m[2]) == "" || strings.TrimSpace(m[3]) == "" {
		return false
	}
	return isAudioFile(name, e.set.AudioExtensions)
}

func (e *RuleEngine) checkFilename(rec *types.AudioFileRecord) []string {
	if e.MatchesTrackFilename(rec.Filename) {
		return nil
	}
	return []string{fmt.Sprintf("Filename does not match 'NN. Artist - Title.flac' pattern: %s", rec.Filename)}
}

func (e *RuleEngine) checkSampleRate(rec *types.AudioFileRecord) []string {
	if rec.SampleRateHz == e.set.SampleRateHz {
		return nil
	}
	return []string{fmt.Sprintf("Sample rate is %d, expected %d", rec.SampleRateHz, e.set.SampleRateHz)}
}

func (e *RuleEngine) checkChannels(rec *types.AudioFileRecord) []string {
	if rec.ChannelCount == e.set.Channels {
		return nil
	}
	return []string{fmt.Sprintf("Channels are %d, expected %d", rec.ChannelCount, e.set.Channels)}
}

func (e *RuleEngine) checkBitDepth(rec *types.AudioFileRecord) []string {
	if rec.BitsPerSample == e.set.BitsPerSample {
		return nil
	}
	return []string{fmt.Sprintf("Bits per sample is %d, expected %d", rec.BitsPerSample, e.set.BitsPerSample)}
}

func checkFrontCover(rec *types.AudioFileRecord) []string {
	if rec.HasPicture(types.PictureTypeFrontCover) {
		return nil
	}
	return []string{"No embedded front cover found"}
}

func checkRequiredTags(rec *types.AudioFileRecord) []string {
	var problems []string
	for _, t := range requiredTags {
		if !rec.Tags.Has(t.key) {
			problems = append(problems, t.label+" is missing")
		}
	}
	return problems
}

// checkAlbumArtist compares case-insensitively but echoes the tag value verbatim.
func (e *RuleEngine) checkAlbumArtist(rec *types.AudioFileRecord) []string {
	value, ok := rec.Tags.First("albumartist")
	if !ok {
		return nil
	}
	if types.FoldCase(value) == types.FoldCase(e.set.AlbumArtist) {
		return nil
	}
	return []string{fmt.Sprintf("albumartist is '%s', expected '%s'", value, e.set.AlbumArtist)}
}

func checkTrackTotal(rec *types.AudioFileRecord) []string {
	if rec.Tags.Has("totaltracks") || rec.Tags.Has("tracktotal") {
		return nil
	}
	return []string{"Total track count is missing (expected TOTALTRACKS or TRACKTOTAL)"}
}
