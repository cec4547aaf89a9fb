package urlnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLowercasesSchemeAndHost(t *testing.T) {
	got, err := Normalize("HTTP://Example.COM/Path")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/Path", got)
}

func TestNormalizeDropsFragment(t *testing.T) {
	got, err := Normalize("https://example.com/path#section")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", got)
}

func TestNormalizeRemovesDefaultPort(t *testing.T) {
	got, err := Normalize("https://example.com:443/path")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/path", got)
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize("://not a url")
	assert.Error(t, err)
}
