package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeArtifactPath(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"clean path untouched", "u1/resume.pdf", "u1/resume.pdf"},
		{"doubled extension collapsed", "u1/resume.pdf.pdf", "u1/resume.pdf"},
		{"counter suffix stripped", "u1/resume (1).pdf", "u1/resume.pdf"},
		{"counter without space", "u1/resume(2).pdf", "u1/resume.pdf"},
		{"counter then doubled extension", "u1/report.pdf (1).pdf", "u1/report.pdf"},
		{"tripled extension collapsed", "u1/report.pdf.pdf.pdf", "u1/report.pdf"},
		{"mixed case extension kept", "u1/Resume.PDF", "u1/Resume.PDF"},
		{"no extension", "u1/resume", "u1/resume"},
		{"bare filename", "resume.docx.docx", "resume.docx"},
		{"nested directories kept", "u1/jobs/abc/letter.odt.odt", "u1/jobs/abc/letter.odt"},
		{"empty input", "", ""},
		{"different extensions untouched", "u1/resume.tar.gz", "u1/resume.tar.gz"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeArtifactPath(tc.input))
		})
	}
}

func TestNormalizeArtifactPathIdempotent(t *testing.T) {
	inputs := []string{
		"u1/resume.pdf",
		"u1/resume.pdf.pdf",
		"u1/resume (1).pdf",
		"u1/report.pdf (1).pdf",
		"u1/report.pdf.pdf (3).pdf",
		"letter (2).docx.docx",
		"weird name (10) (11).rtf",
		"",
		"no-extension (1)",
	}

	for _, input := range inputs {
		once := NormalizeArtifactPath(input)
		twice := NormalizeArtifactPath(once)
		assert.Equal(t, once, twice, "normalizing %q twice must be a no-op", input)
	}
}

func TestContentTypeForExtension(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentTypeForExtension("resume.pdf"))
	assert.Equal(t, "application/pdf", ContentTypeForExtension("Resume.PDF"))
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", ContentTypeForExtension("resume.docx"))
	assert.Equal(t, "text/plain", ContentTypeForExtension("notes.txt"))
	assert.Equal(t, "", ContentTypeForExtension("archive.zip"))
	assert.Equal(t, "", ContentTypeForExtension("no-extension"))
}
