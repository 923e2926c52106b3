package main

import (
	"testing"

	"github.com/Maxwell0339/paper-cli/internal/config"
	"github.com/Maxwell0339/paper-cli/internal/logger"
)

func TestScanOptionsCarryOutputDir(t *testing.T) {
	flagOutputDir = "/tmp/summaries"
	defer func() { flagOutputDir = "" }()

	opts := scanOptions("./papers")

	if opts.Folder != "./papers" {
		t.Errorf("expected folder ./papers, got %q", opts.Folder)
	}
	if opts.OutputDir != "/tmp/summaries" {
		t.Errorf("expected output dir /tmp/summaries, got %q", opts.OutputDir)
	}
	if opts.OnResult == nil {
		t.Error("expected a progress callback to be set")
	}
}

func TestScanOptionsDefaultOutputDir(t *testing.T) {
	flagOutputDir = ""

	opts := scanOptions("./papers")

	if opts.OutputDir != "" {
		t.Errorf("expected empty output dir so scan falls back to the folder, got %q", opts.OutputDir)
	}
}

func TestApplyOverridesRecursiveFlags(t *testing.T) {
	cmd := newScanCmd(logger.Default())

	cfg := config.NewConfig()
	cfg.Recursive = true
	if err := cmd.Flags().Set("no-recursive", "true"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	applyOverrides(cmd, cfg)

	if cfg.Recursive {
		t.Error("expected --no-recursive to disable recursion")
	}
}

func TestApplyOverridesModel(t *testing.T) {
	flagModel = "gpt-4o"
	defer func() { flagModel = "" }()

	cmd := newScanCmd(logger.Default())
	cfg := config.NewConfig()

	applyOverrides(cmd, cfg)

	if cfg.Model != "gpt-4o" {
		t.Errorf("expected model override, got %q", cfg.Model)
	}
}
