package frontier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainOfReducesToRegistrableHost(t *testing.T) {
	d, err := DomainOf("https://www.example.co.uk/path?q=1")
	require.NoError(t, err)
	assert.Equal(t, "example.co.uk", d.String())
}

func TestDomainOfLowercasesHost(t *testing.T) {
	d, err := DomainOf("https://EXAMPLE.COM/")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d.String())
}

func TestDomainOfFallsBackForUnrecognizedSuffix(t *testing.T) {
	d, err := DomainOf("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "localhost", d.String())
}

func TestDomainOfTrimsTrailingDot(t *testing.T) {
	d, err := DomainOf("http://example.com./path")
	require.NoError(t, err)
	assert.Equal(t, "example.com", d.String())
}

func TestDomainOfRejectsUnparsableURL(t *testing.T) {
	_, err := DomainOf("://not-a-url")
	assert.Error(t, err)
}

func TestDomainIsZero(t *testing.T) {
	var d Domain
	assert.True(t, d.IsZero())

	d = NewDomain("example.com")
	assert.False(t, d.IsZero())
}
