package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "v0.1.0"

	var buf bytes.Buffer
	PrintBuildData(&buf)

	assert.Contains(t, buf.String(), "Build version: v0.1.0")
	assert.Contains(t, buf.String(), "Build date: N/A")
}
