package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"optimize", "serve", "print-schema", "write-settings"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommandMetadata(t *testing.T) {
	assert.Equal(t, "hertta", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestOptimizeCommandRequiredFlags(t *testing.T) {
	flag := optimizeCmd.Flags().Lookup("model")
	require.NotNil(t, flag, "optimize command should have --model flag")
}

func TestServeCommandPortFlag(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
}

func TestWriteSettingsCommandOutFlag(t *testing.T) {
	flag := writeSettingsCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "write-settings command should have --out flag")
}
