package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	// Collect subcommand names.
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	// Verify expected subcommands are registered.
	expected := []string{
		"migrate", "datasets", "import", "analyze", "report",
		"publish", "sync", "runs", "serve", "status", "worker", "refresh",
	}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "segmentor", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestDatasetsCommand_HasSubcommands(t *testing.T) {
	cmds := datasetsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"list", "create", "show", "delete"}
	for _, name := range expected {
		assert.True(t, names[name], "datasets should have subcommand %q", name)
	}
}

func TestDatasetsCreateCommand_Flags(t *testing.T) {
	for _, flagName := range []string{
		"satisfaction-scale", "loyalty-scale", "midpoint-sat", "midpoint-loy",
		"apostles-zone", "terrorists-zone", "special-zones", "near-apostles", "premium",
	} {
		flag := datasetsCreateCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "datasets create should have --%s flag", flagName)
	}

	assert.Equal(t, "1-5", datasetsCreateCmd.Flags().Lookup("satisfaction-scale").DefValue)
	assert.Equal(t, "1", datasetsCreateCmd.Flags().Lookup("apostles-zone").DefValue)
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("dataset")
	require.NotNil(t, flag, "import command should have --dataset flag")

	for _, flagName := range []string{"file", "ftp", "encoding", "delimiter", "sheet"} {
		assert.NotNil(t, importCmd.Flags().Lookup(flagName), "import should have --%s flag", flagName)
	}
}

func TestAnalyzeCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"all", "concurrency", "threshold", "special-zones", "near-apostles"} {
		flag := analyzeCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "analyze should have --%s flag", flagName)
	}

	assert.Equal(t, "4", analyzeCmd.Flags().Lookup("concurrency").DefValue)
	assert.Equal(t, "false", analyzeCmd.Flags().Lookup("all").DefValue)
}

func TestRunsCommand_HasSubcommands(t *testing.T) {
	cmds := runsCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, name := range []string{"list", "show"} {
		assert.True(t, names[name], "runs should have subcommand %q", name)
	}
}

func TestReportCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"run", "out", "format", "template", "sections", "narrative"} {
		flag := reportCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "report should have --%s flag", flagName)
	}
	assert.Equal(t, "md", reportCmd.Flags().Lookup("format").DefValue)
}

func TestSyncCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"run", "dry-run", "min-risk"} {
		flag := syncCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "sync should have --%s flag", flagName)
	}
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRefreshCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"datasets", "schedule", "cron"} {
		flag := refreshCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "refresh should have --%s flag", flagName)
	}
}

func TestStatusCommand_Flags(t *testing.T) {
	flag := statusCmd.Flags().Lookup("lookback")
	require.NotNil(t, flag, "status command should have --lookback flag")
	assert.Equal(t, "24", flag.DefValue)
}
