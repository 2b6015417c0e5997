package urlparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBareHost(t *testing.T) {
	u := Parse("example.com")
	require.True(t, u.OK())
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "example.com", u.Host)
	assert.EqualValues(t, 80, u.Port)
	assert.Equal(t, "/", u.Path)
}

func TestParseHostPort(t *testing.T) {
	u := Parse("example.com:8000")
	require.True(t, u.OK())
	assert.Equal(t, "example.com", u.Host)
	assert.EqualValues(t, 8000, u.Port)
	assert.Equal(t, "/", u.Path)
}

func TestParseFullAbsoluteURI(t *testing.T) {
	u := Parse("http://www.example.com:8080/path/to/resource.html")
	require.True(t, u.OK())
	assert.Equal(t, "www.example.com", u.Host)
	assert.EqualValues(t, 8080, u.Port)
	assert.Equal(t, "/path/to/resource.html", u.Path)
}

func TestParseInvalidPort(t *testing.T) {
	u := Parse("example.com:abc")
	require.False(t, u.OK())
	assert.Contains(t, u.Error, "Invalid port `abc`")
}

func TestParseZeroPortIsInvalid(t *testing.T) {
	u := Parse("example.com:0")
	require.False(t, u.OK())
	assert.Contains(t, u.Error, "Invalid port `0`")
}

func TestParseInvalidPathTraversal(t *testing.T) {
	u := Parse("example.com/../secrets")
	require.False(t, u.OK())
	assert.Contains(t, u.Error, "Invalid path includes `/../`")
}

func TestParseInvalidScheme(t *testing.T) {
	u := Parse("https://example.com")
	require.False(t, u.OK())
	assert.Contains(t, u.Error, "Invalid scheme `https`")
}

func TestParseDeepPathTraversalNotAtStart(t *testing.T) {
	u := Parse("example.com/a/b/../../secrets")
	require.False(t, u.OK())
	assert.Contains(t, u.Error, "/../")
}

func TestParseEmptyPathDefaultsToSlash(t *testing.T) {
	u := Parse("example.com:8080/")
	require.True(t, u.OK())
	assert.Equal(t, "/", u.Path)
}
