package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/desertthunder/likeshuffle/internal/auth"
	"github.com/desertthunder/likeshuffle/internal/shared"
	tu "github.com/desertthunder/likeshuffle/internal/testing"
	"golang.org/x/oauth2"
)

func withCredentials(key string) (string, bool) {
	switch key {
	case shared.EnvClientID:
		return "test_client_id", true
	case shared.EnvClientSecret:
		return "test_client_secret", true
	}
	return "", false
}

func noEnv(string) (string, bool) { return "", false }

func newTestRunner(opts RunnerOpts) (*Runner, *bytes.Buffer) {
	output := &bytes.Buffer{}
	opts.Output = output
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = withCredentials
	}
	return NewRunner(opts), output
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	argv := append([]string{appName, "--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...)
	return newApp(r).Run(context.Background(), argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			lib := &tu.MockLibrary{}

			runner := NewRunner(RunnerOpts{Config: config, Logger: logger, Output: output, Library: lib})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.library != lib {
				t.Error("expected library to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil || runner.output == nil || runner.input == nil || runner.lookupEnv == nil {
				t.Error("expected defaults to be set")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{})
		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		runner.output = &tu.FWriter{}
		if err := runner.writePlainln("x"); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		runner, output := newTestRunner(RunnerOpts{})
		if err := runner.writeJSON(map[string]int{"a": 1}, false); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "{\"a\":1}\n" {
			t.Errorf("unexpected output %q", output.String())
		}

		runner.output = tu.NewLimitedWriter(0, output)
		if err := runner.writeJSON(map[string]int{"a": 1}, true); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestShuffleCommand(t *testing.T) {
	t.Run("missing credentials stop before any library call", func(t *testing.T) {
		tc := []struct {
			name   string
			lookup func(string) (string, bool)
			want   string
		}{
			{"both missing", noEnv, shared.EnvClientID},
			{"secret missing", func(k string) (string, bool) {
				if k == shared.EnvClientID {
					return "id", true
				}
				return "", false
			}, shared.EnvClientSecret},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				lib := &tu.MockLibrary{Tracks: tu.MakeTracks(3)}
				runner, _ := newTestRunner(RunnerOpts{Library: lib, LookupEnv: tt.lookup})

				err := run(t, runner, "shuffle")
				if !errors.Is(err, shared.ErrMissingCredentials) {
					t.Fatalf("expected ErrMissingCredentials, got %v", err)
				}
				if !strings.Contains(err.Error(), tt.want) {
					t.Errorf("expected error to name %s, got %v", tt.want, err)
				}
				if len(lib.Calls()) != 0 {
					t.Errorf("expected no library calls, got %v", lib.Calls())
				}
			})
		}
	})

	t.Run("rewrites the playlist", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(250)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "shuffle"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(lib.Appended()) != 3 {
			t.Errorf("expected 3 appends, got %d", len(lib.Appended()))
		}
		if !slices.Equal(lib.Cleared(), []string{shared.DefaultConfig().Shuffle.PlaylistID}) {
			t.Errorf("expected default playlist cleared, got %v", lib.Cleared())
		}
		if !strings.Contains(output.String(), "Wrote 250 tracks") {
			t.Errorf("expected summary in output, got %q", output.String())
		}
	})

	t.Run("root command shuffles", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(5)}
		runner, _ := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Appended()) != 1 {
			t.Errorf("expected 1 append, got %d", len(lib.Appended()))
		}
	})

	t.Run("flags override config", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(25)}
		runner, _ := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "--playlist", "custom", "--batch-size", "10", "shuffle"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !slices.Equal(lib.Cleared(), []string{"custom"}) {
			t.Errorf("expected custom playlist, got %v", lib.Cleared())
		}
		if len(lib.Appended()) != 3 {
			t.Errorf("expected 3 batches of at most 10, got %d", len(lib.Appended()))
		}
	})

	t.Run("invalid batch size is rejected", func(t *testing.T) {
		lib := &tu.MockLibrary{}
		runner, _ := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "--batch-size", "101", "shuffle"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
		if len(lib.Calls()) != 0 {
			t.Error("expected no library calls")
		}
	})

	t.Run("dry run", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(4)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "--dry-run", "shuffle"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(lib.Cleared()) != 0 || len(lib.Appended()) != 0 {
			t.Error("expected no playlist writes")
		}
		if !strings.Contains(output.String(), "Dry run") || !strings.Contains(output.String(), "Song t0003") {
			t.Errorf("expected dry run listing, got %q", output.String())
		}
	})

	t.Run("partial failures", func(t *testing.T) {
		newLib := func() *tu.MockLibrary {
			return &tu.MockLibrary{Tracks: tu.MakeTracks(250), FailAppends: map[int]error{2: shared.ErrAPIRequest}}
		}

		runner, output := newTestRunner(RunnerOpts{Library: newLib()})
		if err := run(t, runner, "shuffle"); err != nil {
			t.Errorf("expected lenient run to succeed, got %v", err)
		}
		if !strings.Contains(output.String(), "1 of 3 batches failed") {
			t.Errorf("expected failure count in output, got %q", output.String())
		}

		runner, _ = newTestRunner(RunnerOpts{Library: newLib()})
		if err := run(t, runner, "--strict", "shuffle"); !errors.Is(err, shared.ErrPartialWrite) {
			t.Errorf("expected ErrPartialWrite, got %v", err)
		}
	})

	t.Run("json summary", func(t *testing.T) {
		tracks := tu.MakeTracks(120)
		tracks[0].ID = ""
		lib := &tu.MockLibrary{Tracks: tracks}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "--json", "shuffle"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var summary runSummary
		if err := json.Unmarshal(output.Bytes(), &summary); err != nil {
			t.Fatalf("expected JSON output, got %q: %v", output.String(), err)
		}
		if summary.Fetched != 119 || summary.Skipped != 1 || summary.Written != 119 || summary.Batches != 2 {
			t.Errorf("unexpected summary %+v", summary)
		}
		if summary.User != "mock_user" || summary.RunID == "" {
			t.Errorf("expected user and run id, got %+v", summary)
		}
	})

	t.Run("library errors are returned", func(t *testing.T) {
		lib := &tu.MockLibrary{UserErr: shared.ErrTokenExpired}
		runner, _ := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "shuffle"); !errors.Is(err, shared.ErrTokenExpired) {
			t.Errorf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{Library: &tu.MockLibrary{}})
		if err := run(t, runner, "--log-level", "chatty", "shuffle"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("explicit missing config file", func(t *testing.T) {
		runner, _ := newTestRunner(RunnerOpts{Library: &tu.MockLibrary{}})
		err := run(t, runner, "--config", filepath.Join(t.TempDir(), "nope.toml"), "shuffle")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestTracksCommand(t *testing.T) {
	t.Run("plain", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(3)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "tracks"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := "* Song t0000\n* Song t0001\n* Song t0002\n"
		if output.String() != want {
			t.Errorf("expected %q, got %q", want, output.String())
		}
		if len(lib.Cleared()) != 0 {
			t.Error("tracks must not write")
		}
	})

	t.Run("json", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(2)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "--json", "tracks"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var tracks []map[string]any
		if err := json.Unmarshal(output.Bytes(), &tracks); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if len(tracks) != 2 || tracks[1]["id"] != "t0001" {
			t.Errorf("unexpected tracks %v", tracks)
		}
	})

	t.Run("csv", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(2)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "tracks", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		want := "ID,Name,Artists\nt0000,Song t0000,Artist\nt0001,Song t0001,Artist\n"
		if output.String() != want {
			t.Errorf("expected %q, got %q", want, output.String())
		}
	})

	t.Run("export to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "liked.md")
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(2)}
		runner, output := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "tracks", "-f", "md", "-o", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "1. Artist - Song t0000") {
			t.Error("expected markdown listing in file")
		}
		if !strings.Contains(output.String(), "Exported 2 tracks") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		lib := &tu.MockLibrary{Tracks: tu.MakeTracks(2)}
		runner, _ := newTestRunner(RunnerOpts{Library: lib})

		if err := run(t, runner, "tracks", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if len(lib.Calls()) != 0 {
			t.Error("expected no library calls")
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("status without cache", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "token.json")
		runner, output := newTestRunner(RunnerOpts{LookupEnv: noEnv})

		if err := run(t, runner, "--token-path", tokenPath, "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), auth.NeedsAuthorization.String()) {
			t.Errorf("expected NeedsAuthorization, got %q", output.String())
		}
	})

	t.Run("status with cache", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "token.json")
		if err := auth.NewTokenCache(tokenPath).Save(&oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}
		runner, output := newTestRunner(RunnerOpts{LookupEnv: noEnv})

		if err := run(t, runner, "--token-path", tokenPath, "--json", "auth", "status"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var status authStatus
		if err := json.Unmarshal(output.Bytes(), &status); err != nil {
			t.Fatalf("expected JSON output: %v", err)
		}
		if status.State != auth.CachedValid.String() || !status.Refresh {
			t.Errorf("unexpected status %+v", status)
		}
	})

	t.Run("login saves token", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "token.json")
		authorizer := &tu.MockAuthorizer{}
		runner, output := newTestRunner(RunnerOpts{Authorizer: authorizer, Input: authorizer.RedirectInput("abc")})

		if err := run(t, runner, "--token-path", tokenPath, "auth", "login"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "https://accounts.example.com/authorize") {
			t.Errorf("expected authorization URL, got %q", output.String())
		}
		token, err := auth.NewTokenCache(tokenPath).Load()
		if err != nil {
			t.Fatalf("expected saved token, got %v", err)
		}
		if token.AccessToken != "access_abc" {
			t.Errorf("unexpected token %+v", token)
		}
	})

	t.Run("login rejects bad input", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "token.json")
		runner, _ := newTestRunner(RunnerOpts{Authorizer: &tu.MockAuthorizer{}, Input: strings.NewReader("http://127.0.0.1:8888/callback?code=abc&state=forged\n")})

		err := run(t, runner, "--token-path", tokenPath, "auth", "login")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
		tu.AssertFileMissing(t, tokenPath)
	})

	t.Run("logout removes cache", func(t *testing.T) {
		tokenPath := filepath.Join(t.TempDir(), "token.json")
		if err := auth.NewTokenCache(tokenPath).Save(&oauth2.Token{AccessToken: "a"}); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}
		runner, _ := newTestRunner(RunnerOpts{LookupEnv: noEnv})

		if err := run(t, runner, "--token-path", tokenPath, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileMissing(t, tokenPath)
	})
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "likeshuffle.toml")
	runner, output := newTestRunner(RunnerOpts{})

	if err := run(t, runner, "--config", path, "config", "init"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	tu.AssertFileExists(t, path)
	if !strings.Contains(tu.MustReadFile(t, path), "[shuffle]") {
		t.Error("expected example config content")
	}
	if !strings.Contains(output.String(), shared.EnvClientID) {
		t.Errorf("expected hint about credentials, got %q", output.String())
	}

	if err := run(t, runner, "--config", path, "config", "init"); err == nil {
		t.Error("expected error when config already exists")
	}
}
