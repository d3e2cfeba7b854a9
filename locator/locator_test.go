package locator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
)

type fakeLister struct {
	entries map[string][]string
	err     error
}

func (f *fakeLister) ListPaths(_ context.Context, _, prefix string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[prefix], nil
}

func jobWithSource(source string) *entity.GenerationJob {
	return &entity.GenerationJob{SourcePath: source}
}

func TestCandidatesOrdering(t *testing.T) {
	l := NewLocator(&fakeLister{})

	candidates := l.Candidates(jobWithSource("u1/report.pdf.pdf"))

	require.NotEmpty(t, candidates)
	assert.Equal(t, "u1/report.pdf", candidates[0], "normalized path must come first")

	rewritten := indexOf(candidates, "u1/rewritten_report.pdf.pdf")
	require.GreaterOrEqual(t, rewritten, 0, "rewritten raw variant must be offered")
	assert.Greater(t, rewritten, 0, "rewritten variant must come after the normalized path")

	assert.Contains(t, candidates, "u1/report.pdf.pdf", "raw path stays as a fallback")
}

func TestCandidatesDeduplicated(t *testing.T) {
	l := NewLocator(&fakeLister{})

	candidates := l.Candidates(jobWithSource("u1/resume.pdf"))

	seen := map[string]bool{}
	for _, candidate := range candidates {
		assert.False(t, seen[candidate], "candidate %q offered twice", candidate)
		seen[candidate] = true
	}
}

func TestCandidatesPreferResultPath(t *testing.T) {
	l := NewLocator(&fakeLister{})
	result := "u1/out/letter.pdf"
	job := &entity.GenerationJob{SourcePath: "u1/in/letter.docx", ResultPath: &result}

	candidates := l.Candidates(job)

	require.NotEmpty(t, candidates)
	assert.Equal(t, "u1/out/letter.pdf", candidates[0])
}

func TestResolveReturnsStoredKey(t *testing.T) {
	// The stored spelling differs from the candidate; the list-based
	// lookup must return what is actually in the bucket.
	store := &fakeLister{entries: map[string][]string{
		"u1/": {"u1/Report.PDF.pdf"},
	}}
	l := NewLocator(store)

	key, err := l.Resolve(context.Background(), "docgen", jobWithSource("u1/report.pdf.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "u1/Report.PDF.pdf", key)
}

func TestResolveNotFound(t *testing.T) {
	store := &fakeLister{entries: map[string][]string{
		"u1/": {"u1/unrelated.docx"},
	}}
	l := NewLocator(store)

	_, err := l.Resolve(context.Background(), "docgen", jobWithSource("u1/report.pdf"))

	assert.ErrorIs(t, err, entity.ErrArtifactNotFound)
}

func TestVerifyFalseOnStoreError(t *testing.T) {
	store := &fakeLister{err: errors.New("list timed out")}
	l := NewLocator(store)

	assert.False(t, l.Verify(context.Background(), "docgen", "u1/report.pdf"))
}

func TestVerifyIgnoresNestedEntries(t *testing.T) {
	store := &fakeLister{entries: map[string][]string{
		"u1/": {"u1/nested/report.pdf"},
	}}
	l := NewLocator(store)

	assert.False(t, l.Verify(context.Background(), "docgen", "u1/report.pdf"))
}

func indexOf(list []string, want string) int {
	for i, v := range list {
		if v == want {
			return i
		}
	}
	return -1
}
