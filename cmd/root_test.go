package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"attribute", "lift", "baseline", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "lift-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestAttributeCommand_Flags(t *testing.T) {
	for _, name := range []string{
		"input", "sheet", "encoding", "output", "models", "format", "window",
		"corr-cap", "yoy-cap", "halo-rate", "baseline-driver", "baseline-path",
	} {
		assert.NotNil(t, attributeCmd.Flags().Lookup(name), "attribute should have --%s", name)
	}
	assert.Equal(t, "table", attributeCmd.Flags().Lookup("format").DefValue)
	assert.Equal(t, "true", attributeCmd.Flags().Lookup("self-history").DefValue)

	input := attributeCmd.Flags().Lookup("input")
	require.NotNil(t, input)
	assert.Equal(t, []string{"true"}, input.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestLiftCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "window", "summary", "brand", "format", "output"} {
		assert.NotNil(t, liftCmd.Flags().Lookup(name), "lift should have --%s", name)
	}
}

func TestBaselineCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range baselineCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["import"])
	assert.True(t, names["export"])

	require.NotNil(t, baselineImportCmd.Flags().Lookup("dry-run"))
	require.NotNil(t, baselineExportCmd.Flags().Lookup("year"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"yoy", []string{"yoy"}},
		{" yoy , rolling ,", []string{"yoy", "rolling"}},
		{"", nil},
		{" , ", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitAndTrim(tt.in), tt.in)
	}
}
