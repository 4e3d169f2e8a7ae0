package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"short link", "https://youtu.be/dQw4w9WgXcQ"},
		{"watch page", "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"watch page extra params", "https://www.youtube.com/watch?list=PL123&v=dQw4w9WgXcQ&t=42"},
		{"embed path", "https://www.youtube.com/embed/dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := ExtractVideoID(tc.url)
			require.NoError(t, err)
			assert.Equal(t, "dQw4w9WgXcQ", id)
		})
	}
}

func TestExtractVideoIDRejectsMalformed(t *testing.T) {
	for _, url := range []string{
		"",
		"https://example.com/watch?v=short",
		"https://youtu.be/",
		"not a url at all",
		"https://vimeo.com/123456789",
	} {
		_, err := ExtractVideoID(url)
		assert.ErrorIs(t, err, ErrInvalidReference, url)
	}
}

func TestNewPlaybackStateStartsPaused(t *testing.T) {
	ps, err := NewPlaybackState("https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", ps.VideoID)
	assert.Equal(t, "Video dQw4w9WgXcQ", ps.Title)
	assert.Equal(t, 0.0, ps.Position)
	assert.False(t, ps.Playing)
}

func TestNewMemberValidation(t *testing.T) {
	_, err := NewMember("c1", "", "")
	assert.ErrorIs(t, err, ErrUsernameEmpty)

	long := make([]byte, MaxUsernameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewMember("c1", string(long), "")
	assert.ErrorIs(t, err, ErrUsernameTooLong)

	m, err := NewMember("c1", "alice", "https://cdn/a.png")
	require.NoError(t, err)
	assert.Equal(t, ConnID("c1"), m.ID)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, RoomCode("AB12CD"), NormalizeCode(" ab12cd "))
}
