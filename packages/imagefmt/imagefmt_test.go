package imagefmt

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{
			name:     "png signature",
			data:     []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00},
			expected: PNG,
		},
		{
			name:     "jpeg signature",
			data:     []byte{0xFF, 0xD8, 0xFF, 0xE0},
			expected: JPEG,
		},
		{
			name:     "gif signature",
			data:     []byte("GIF89a"),
			expected: GIF,
		},
		{
			name:     "riff webp signature",
			data:     []byte("RIFF\x00\x00\x00\x00WEBP"),
			expected: WebP,
		},
		{
			name:     "unknown prefix",
			data:     []byte{0x00, 0x01, 0x02, 0x03},
			expected: Unknown,
		},
		{
			name:     "empty input",
			data:     nil,
			expected: Unknown,
		},
		{
			name:     "truncated png header",
			data:     []byte{0x89, 0x50, 0x4E},
			expected: Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Detect(tt.data))
		})
	}
}

func TestHexPrefix(t *testing.T) {
	assert.Equal(t, "89504e47", HexPrefix([]byte{0x89, 0x50, 0x4E, 0x47, 0x0D}, 4))
	assert.Equal(t, "ffd8", HexPrefix([]byte{0xFF, 0xD8}, 8))
	assert.Equal(t, "", HexPrefix(nil, 8))
}

func TestBase64RoundTrip(t *testing.T) {
	original := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0xDE, 0xAD, 0xBE, 0xEF}
	encoded := base64.StdEncoding.EncodeToString(original)

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
	assert.Equal(t, PNG, Detect(decoded))
}
