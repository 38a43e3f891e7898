package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"check", "watch", "process", "records", "export", "serve", "migrate"}

	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}

	for _, name := range want {
		assert.True(t, got[name], "command %s not registered", name)
	}
}

func TestProcessRequiresOneArg(t *testing.T) {
	require.Error(t, processCmd.Args(processCmd, nil))
	require.Error(t, processCmd.Args(processCmd, []string{"a.pdf", "b.pdf"}))
	require.NoError(t, processCmd.Args(processCmd, []string{"a.pdf"}))
}

func TestDefaultFlags(t *testing.T) {
	assert.Equal(t, "30", recordsCmd.Flags().Lookup("days").DefValue)
	assert.Equal(t, "70", recordsCmd.Flags().Lookup("min").DefValue)
	assert.Equal(t, "enforcement-report.xlsx", exportCmd.Flags().Lookup("out").DefValue)
	assert.Equal(t, "90", exportCmd.Flags().Lookup("days").DefValue)
	assert.Equal(t, "0", serveCmd.Flags().Lookup("port").DefValue)
}
