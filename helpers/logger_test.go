package helpers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "error.log")

	// Create a logger
	logger := NewLogger(tmpFile)

	// Log an error
	logger.LogError("segment:opening", errors.New("track not found"))
	logger.LogError("page:3", errors.New("timeout"))

	// Check that the file was created and contains the errors
	data, err := os.ReadFile(tmpFile)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "segment:opening")
	assert.Contains(t, string(data), "track not found")
	assert.Contains(t, string(data), "[page:3] timeout")

	// Info messages go to the structured logger, not the file
	logger.LogInfo("Test info message: %s", "hello")
	data, _ = os.ReadFile(tmpFile)
	assert.NotContains(t, string(data), "hello")
}

func TestLoggerWithoutFile(t *testing.T) {
	logger := NewLogger("")
	logger.LogError("unit", errors.New("ignored"))
}
