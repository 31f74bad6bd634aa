package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid", "alice_01", false},
		{"dots and dashes", "a.b-c", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 33), true},
		{"space", "al ice", true},
		{"unicode", "ålice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				var vErr Error
				assert.True(t, errors.As(err, &vErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("mypassword1"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.Error(t, ValidateEmail("Alice <alice@example.com>"))
	assert.Error(t, ValidateEmail("not-an-email"))
}

func TestDetectImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	contentType, err := DetectImage(png, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)

	_, err = DetectImage([]byte("plain text"), 1<<20)
	assert.Error(t, err)

	_, err = DetectImage(png, 4)
	assert.Error(t, err)

	_, err = DetectImage(nil, 1<<20)
	assert.Error(t, err)
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Explicit", Title("  Explicit ", "body"))
	assert.Equal(t, "How do I close a channel?", Title("", "\n# How do I close a channel?\nmore"))
	assert.Equal(t, 120, len([]rune(Title("", strings.Repeat("é", 200)))))
}

func TestNormalizeTags(t *testing.T) {
	// "é" composed vs decomposed
	got, err := NormalizeTags([]string{" go ", "caf\u00e9", "cafe\u0301", "go"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "caf\u00e9"}, got)

	_, err = NormalizeTags([]string{"  "})
	assert.Error(t, err)

	_, err = NormalizeTags([]string{"two words"})
	assert.Error(t, err)

	got, err = NormalizeTags(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}
