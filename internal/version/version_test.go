package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })

	Version = "v0.9.1"
	assert.Contains(t, String(), "v0.9.1")
	assert.Contains(t, String(), GitSHA)
}
