//go:build !integration

package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintSchemaCommandRunsWithoutError(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	runErr := printSchemaCmd.RunE(printSchemaCmd, nil)
	require.NoError(t, w.Close())
	os.Stdout = orig

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	require.NoError(t, runErr)
	assert.Contains(t, buf.String(), "nodes:")
	assert.Contains(t, buf.String(), "setup:")
}
