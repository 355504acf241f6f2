package shared

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
		if !strings.Contains(buf.String(), "key=value") {
			t.Errorf("expected log output to contain key=value, got %q", buf.String())
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run_id", "abc")
		logger.Info("step")

		if !strings.Contains(buf.String(), "run_id=abc") {
			t.Errorf("expected run_id field, got %q", buf.String())
		}
	})

	t.Run("SetLogLevelString", func(t *testing.T) {
		logger := NewLogger(&bytes.Buffer{})

		if err := SetLogLevelString(logger, "debug"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", logger.GetLevel())
		}

		if err := SetLogLevelString(logger, ""); err != nil {
			t.Errorf("empty level should be ignored, got %v", err)
		}

		err := SetLogLevelString(logger, "loud")
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("GenerateID is unique", func(t *testing.T) {
		a, b := GenerateID(), GenerateID()
		if a == b {
			t.Error("expected distinct IDs")
		}
		if len(a) != 36 {
			t.Errorf("expected uuid string of length 36, got %d", len(a))
		}
	})

	t.Run("GenerateState", func(t *testing.T) {
		state, err := GenerateState()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(state) != 32 {
			t.Errorf("expected 32 hex chars, got %d", len(state))
		}
		other, _ := GenerateState()
		if state == other {
			t.Error("expected distinct states")
		}
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("loads without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "LIKESHUFFLE_TEST_A=from_file\nLIKESHUFFLE_TEST_B=from_file\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		t.Setenv("LIKESHUFFLE_TEST_A", "from_env")
		t.Setenv("LIKESHUFFLE_TEST_B", "")
		os.Unsetenv("LIKESHUFFLE_TEST_B")

		if err := LoadEnv(path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if got := os.Getenv("LIKESHUFFLE_TEST_A"); got != "from_env" {
			t.Errorf("expected existing variable to win, got %s", got)
		}
		if got := os.Getenv("LIKESHUFFLE_TEST_B"); got != "from_file" {
			t.Errorf("expected variable from file, got %s", got)
		}
	})
}

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCmd
	t.Cleanup(func() {
		getRuntime, startCmd = origRuntime, origStart
	})

	tc := []struct {
		goos    string
		want    string
		wantErr bool
	}{
		{goos: "darwin", want: "open"},
		{goos: "linux", want: "xdg-open"},
		{goos: "windows", want: "rundll32"},
		{goos: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			var started *exec.Cmd
			getRuntime = func() string { return tt.goos }
			startCmd = func(cmd *exec.Cmd) error {
				started = cmd
				return nil
			}

			err := OpenBrowser("https://example.com")
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unsupported platform")
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if started == nil || filepath.Base(started.Path) != tt.want && started.Args[0] != tt.want {
				t.Errorf("expected %s to be started, got %v", tt.want, started)
			}
		})
	}

	t.Run("start failure is wrapped", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCmd = func(*exec.Cmd) error { return errors.New("boom") }

		err := OpenBrowser("https://example.com")
		if err == nil || !strings.Contains(err.Error(), "failed to open browser") {
			t.Errorf("expected wrapped error, got %v", err)
		}
	})
}
