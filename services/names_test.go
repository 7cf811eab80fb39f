package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my file.txt", "my_file.txt"},
		{"a  b.txt", "a_b.txt"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\me\notes.txt`, "notes.txt"},
		{"photo (1).jpg", "photo_1_.jpg"},
		{"...", ""},
		{"___", ""},
		{"", ""},
		{"résumé.pdf", "r_sum_.pdf"},
		{"tab\there.txt", "tabhere.txt"},
		{".hidden", "hidden"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeFilename(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		"report.pdf",
		"my file.txt",
		"weird  name -- (final).tar.gz",
		"../..//a b\\c.txt",
		"résumé fünf.doc",
		"....leading.dots",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once), "input %q", in)
	}
}

func TestResolveName(t *testing.T) {
	clean, key, err := ResolveName(7, "my report.pdf")
	require.NoError(t, err)
	assert.Equal(t, "my_report.pdf", clean)
	assert.Equal(t, "user_7/my_report.pdf", key)
}

func TestResolveNameRejectsEmptyResult(t *testing.T) {
	_, _, err := ResolveName(1, "///")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, _, err = ResolveName(1, "..")
	assert.ErrorIs(t, err, ErrInvalidName)
}
