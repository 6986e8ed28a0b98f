package services

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"releasegate/testsupport"
	"releasegate/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComparator() *Comparator {
	return NewComparator(NewMetadataReader(), NewRuleEngine(DefaultRuleSet()), "Cover.png", log.New(io.Discard, "", 0))
}

func problemStrings(problems []types.ComplianceProblem) []string {
	var out []string
	for _, p := range problems {
		out = append(out, p.String())
	}
	return out
}

func TestCompareMissingCandidateDir(t *testing.T) {
	err := newTestComparator().Compare(filepath.Join(t.TempDir(), "nope"), "", NewCollectingReporter("x.zip"))
	assert.True(t, errors.Is(err, ErrCandidateNotFound))
}

func TestCompareEmptyDirReportsOnlyArtwork(t *testing.T) {
	r := NewCollectingReporter("empty.zip")
	require.NoError(t, newTestComparator().Compare(t.TempDir(), "", r))

	assert.Equal(t, []string{"Cover.png not found in folder"}, problemStrings(r.Result().Problems))
	assert.Equal(t, "", r.Result().Problems[0].File)
}

func TestCompareCompliantRelease(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(dir, "01. A - B.flac"), testsupport.CompliantFLAC())
	testsupport.WriteFLAC(t, filepath.Join(dir, "02. C - D.flac"), testsupport.CompliantFLAC())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cover.png"), testsupport.PNG, 0644))

	r := NewCollectingReporter("release.zip")
	require.NoError(t, newTestComparator().Compare(dir, "", r))

	assert.Empty(t, r.Result().Problems)
	assert.Equal(t, 2, r.Result().FilesChecked)
}

func TestCompareBadFilenameOnly(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(dir, "1. A - B.flac"), testsupport.CompliantFLAC())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cover.png"), testsupport.PNG, 0644))

	var out bytes.Buffer
	r := NewLineReporter(&out)
	require.NoError(t, newTestComparator().Compare(dir, "", r))

	assert.Equal(t, "- 1. A - B.flac: Filename does not match 'NN. Artist - Title.flac' pattern: 1. A - B.flac\n", out.String())
	assert.Equal(t, 1, r.Count())
}

func TestCompareUnreadableFileIsReportedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01. A - B.flac"), []byte("definitely not flac data"), 0644))
	testsupport.WriteFLAC(t, filepath.Join(dir, "02. C - D.flac"), testsupport.CompliantFLAC().WithoutComment("GENRE"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cover.png"), testsupport.PNG, 0644))

	r := NewCollectingReporter("release.zip")
	require.NoError(t, newTestComparator().Compare(dir, "", r))

	problems := r.Result().Problems
	require.Len(t, problems, 2)
	assert.Equal(t, "01. A - B.flac", problems[0].File)
	assert.Contains(t, problems[0].Message, "could not read metadata: ")
	assert.Equal(t, "02. C - D.flac: Genre (GENRE) is missing", problems[1].String())
}

func TestCompareIgnoresSubdirectoriesAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(dir, "nested", "bad name.flac"), testsupport.CompliantFLAC())
	require.NoError(t, os.Mkdir(filepath.Join(dir, "folder.flac"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cover.png"), testsupport.PNG, 0644))

	c := newTestComparator()
	files, err := c.ListAudioFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	r := NewCollectingReporter("release.zip")
	require.NoError(t, c.Compare(dir, "", r))
	assert.Empty(t, r.Result().Problems)
}

func TestCompareOrdersFilesByName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"03. A - C.flac", "01. A - A.flac", "02. A - B.flac"} {
		testsupport.WriteFLAC(t, filepath.Join(dir, name), testsupport.CompliantFLAC())
	}

	files, err := newTestComparator().ListAudioFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"01. A - A.flac", "02. A - B.flac", "03. A - C.flac"}, files)
}

type recordingPolicy struct {
	candidates []string
	reference  *types.ReferenceManifest
}

func (p *recordingPolicy) Check(candidates []string, reference *types.ReferenceManifest) []types.ComplianceProblem {
	p.candidates = candidates
	p.reference = reference
	var problems []types.ComplianceProblem
	for _, name := range candidates {
		if !reference.Has(name) {
			problems = append(problems, types.ComplianceProblem{File: name, Message: "not in reference release"})
		}
	}
	return problems
}

func TestCompareBuildsReferenceManifest(t *testing.T) {
	candidate := t.TempDir()
	testsupport.WriteFLAC(t, filepath.Join(candidate, "01. A - B.flac"), testsupport.CompliantFLAC())
	require.NoError(t, os.WriteFile(filepath.Join(candidate, "Cover.png"), testsupport.PNG, 0644))

	reference := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(reference, "Album"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(reference, "Album", "01. X - Y.flac"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(reference, "Album", "Cover.png"), testsupport.PNG, 0644))

	t.Run("default policy reports nothing", func(t *testing.T) {
		r := NewCollectingReporter("release.zip")
		require.NoError(t, newTestComparator().Compare(candidate, reference, r))
		assert.Empty(t, r.Result().Problems)
		assert.Equal(t, 2, r.Result().ReferenceFiles)
	})

	t.Run("custom policy sees the manifest", func(t *testing.T) {
		policy := &recordingPolicy{}
		r := NewCollectingReporter("release.zip")
		require.NoError(t, newTestComparator().WithReferencePolicy(policy).Compare(candidate, reference, r))

		assert.Equal(t, []string{"01. A - B.flac"}, policy.candidates)
		assert.Equal(t, []string{"01. X - Y.flac", "Cover.png"}, policy.reference.Names())
		assert.Equal(t, []string{"01. A - B.flac: not in reference release"}, problemStrings(r.Result().Problems))
	})
}
