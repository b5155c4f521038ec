package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, logLevel, verbose, headless = "", "", false, false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	stdout, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "petra "+Version) {
		t.Fatalf("expected version line, got: %s", stdout)
	}
}

func TestVersionVerboseShowsEndpoint(t *testing.T) {
	t.Setenv("PETRA_CONFIG", "")
	t.Setenv("PETRA_ENDPOINT", "ws://voice.local:9000/ws")

	stdout, err := runCmd(t, "version", "--verbose")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(stdout, "ws://voice.local:9000/ws") {
		t.Fatalf("expected endpoint, got: %s", stdout)
	}
}

func TestRunFailsOnMissingConfig(t *testing.T) {
	_, err := runCmd(t, "run", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected missing config error")
	}
}

func TestLoadConfigAppliesLogLevelFlag(t *testing.T) {
	t.Setenv("PETRA_CONFIG", "")
	configPath, logLevel = "", "debug"
	t.Cleanup(func() { logLevel = "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug, got %q", cfg.Log.Level)
	}
}
