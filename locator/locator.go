package locator

import (
	"context"
	"path"
	"strings"

	"github.com/tnqbao/gau-docgen-orchestrator/entity"
	"github.com/tnqbao/gau-docgen-orchestrator/utils"
)

// Lister is the slice of the blob store the locator needs. A direct
// existence probe is not trusted here: the stores this runs against show
// read-after-write lag and inconsistent head behavior, so presence is
// established by listing the directory scope and comparing names.
type Lister interface {
	ListPaths(ctx context.Context, bucket, prefix string) ([]string, error)
}

type Locator struct {
	store Lister
}

func NewLocator(store Lister) *Locator {
	return &Locator{store: store}
}

// Candidates returns every plausible storage path for the job's artifact,
// in priority order: the canonical path first, then the naming variants the
// generation worker has historically produced ("rewritten_" prefix,
// doubled extension). The worker and the client never shared a naming
// contract, so the locator offers every spelling rather than assume one.
func (l *Locator) Candidates(job *entity.GenerationJob) []string {
	raw := job.SourcePath
	if job.ResultPath != nil && *job.ResultPath != "" {
		raw = *job.ResultPath
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	normalized := utils.NormalizeArtifactPath(raw)
	dir, rawBase := splitPath(raw)
	_, normBase := splitPath(normalized)

	candidates := []string{
		normalized,
		dir + "rewritten_" + rawBase,
		dir + "rewritten_" + normBase,
		doubledExtension(normalized),
		raw,
	}

	return dedupe(candidates)
}

// Verify reports whether the candidate exists in the bucket, established by
// listing its directory scope and comparing normalized, case-insensitive
// filenames. Returns false, never an error, on any store failure: absence
// of proof is absence of the file, and the caller falls through to the
// next candidate.
func (l *Locator) Verify(ctx context.Context, bucket, candidate string) bool {
	_, ok := l.lookup(ctx, bucket, candidate)
	return ok
}

// Resolve returns the stored key of the first candidate that verifies, or
// entity.ErrArtifactNotFound when every candidate misses.
func (l *Locator) Resolve(ctx context.Context, bucket string, job *entity.GenerationJob) (string, error) {
	for _, candidate := range l.Candidates(job) {
		if key, ok := l.lookup(ctx, bucket, candidate); ok {
			return key, nil
		}
	}
	return "", entity.ErrArtifactNotFound
}

// lookup returns the actual stored key matching the candidate, which may
// differ in spelling from the candidate itself.
func (l *Locator) lookup(ctx context.Context, bucket, candidate string) (string, bool) {
	dir, base := splitPath(candidate)
	want := strings.ToLower(utils.NormalizeArtifactPath(base))
	if want == "" {
		return "", false
	}

	entries, err := l.store.ListPaths(ctx, bucket, dir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		entryDir, entryBase := splitPath(entry)
		if entryDir != dir {
			continue
		}
		if strings.ToLower(utils.NormalizeArtifactPath(entryBase)) == want {
			return entry, true
		}
	}

	return "", false
}

func splitPath(p string) (dir, base string) {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[:idx+1], p[idx+1:]
	}
	return "", p
}

func doubledExtension(p string) string {
	ext := path.Ext(p)
	if ext == "" {
		return p
	}
	return p + ext
}

func dedupe(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	out := candidates[:0]
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		out = append(out, candidate)
	}
	return out
}
