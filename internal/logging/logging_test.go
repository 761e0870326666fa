package logging

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hedge.log")
	closer := Setup(Options{File: path, MaxSizeMB: 1, MaxBackups: 1})
	t.Cleanup(func() { Setup(Options{}) })

	log.Printf("[INFO] salary processed")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] salary processed")
	assert.Contains(t, string(data), "logging_test.go")
}

func TestSetupWithoutFile(t *testing.T) {
	closer := Setup(Options{})
	assert.NoError(t, closer.Close())
}
