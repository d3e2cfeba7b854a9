package utils

import (
	"path"
	"regexp"
	"strings"
)

// Trailing parenthesized disambiguation counter, e.g. "report (1).pdf".
var counterSuffixRe = regexp.MustCompile(`\s*\(\d+\)$`)

// NormalizeArtifactPath maps a raw, possibly malformed artifact path to its
// canonical form. The generation worker and older clients disagreed on
// result naming, so the same logical file can be referenced as
// "u1/report.pdf.pdf" or "u1/report (1).pdf"; this collapses those spellings
// to one. Pure and total: unrecognized input is returned unchanged, and
// NormalizeArtifactPath(NormalizeArtifactPath(p)) == NormalizeArtifactPath(p).
func NormalizeArtifactPath(rawPath string) string {
	trimmed := strings.TrimSpace(rawPath)
	if trimmed == "" {
		return trimmed
	}

	dir := ""
	base := trimmed
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		dir = trimmed[:idx+1]
		base = trimmed[idx+1:]
	}

	// Stripping a counter can expose another doubled extension
	// ("report.pdf (1).pdf"), so repeat both rules until stable.
	for {
		next := stripCounterSuffix(collapseDoubledExtension(base))
		if next == base {
			break
		}
		base = next
	}

	return dir + base
}

// collapseDoubledExtension rewrites "report.pdf.pdf" to "report.pdf".
func collapseDoubledExtension(base string) string {
	for {
		ext := path.Ext(base)
		if ext == "" || ext == base {
			return base
		}
		stem := strings.TrimSuffix(base, ext)
		if !strings.HasSuffix(strings.ToLower(stem), strings.ToLower(ext)) {
			return base
		}
		base = stem
	}
}

// stripCounterSuffix rewrites "report (1).pdf" to "report.pdf".
func stripCounterSuffix(base string) string {
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for counterSuffixRe.MatchString(stem) {
		stem = counterSuffixRe.ReplaceAllString(stem, "")
	}
	return strings.TrimSpace(stem) + ext
}

// Content types accepted for document artifacts. Anything else is rejected
// before any network call.
var artifactContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	".txt":  "text/plain",
}

// ContentTypeForExtension returns the MIME type for a supported artifact
// extension, or "" when the extension is not supported.
func ContentTypeForExtension(name string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(name)))
	return artifactContentTypes[ext]
}
