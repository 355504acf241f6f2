package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/likeshuffle/internal/auth"
	"github.com/desertthunder/likeshuffle/internal/services"
	"github.com/desertthunder/likeshuffle/internal/shared"
	"github.com/desertthunder/likeshuffle/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	library    services.Library
	authorizer auth.Authorizer
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
	lookupEnv  func(string) (string, bool)
	shuffle    tasks.ShuffleFunc
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Library and Authorizer replace the Spotify service, mainly in tests.
// Config, when set, skips loading the configuration file.
type RunnerOpts struct {
	Config     *shared.Config
	Library    services.Library
	Authorizer auth.Authorizer
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	LookupEnv  func(string) (string, bool)
	Shuffle    tasks.ShuffleFunc
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	return &Runner{
		config:     opts.Config,
		library:    opts.Library,
		authorizer: opts.Authorizer,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
		lookupEnv:  opts.LookupEnv,
		shuffle:    opts.Shuffle,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		shuffleCommand, tracksCommand, authCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig builds the configuration from the file, the environment and flags, in increasing precedence.
//
// The configuration is only validated when validate is set, so commands that never reach the network
// work without credentials.
func (r *Runner) loadConfig(cmd *cli.Command, validate bool) (*shared.Config, error) {
	if err := shared.SetLogLevelString(r.logger, cmd.String("log-level")); err != nil {
		return nil, err
	}

	config := r.config
	if config == nil {
		if err := shared.LoadEnv(cmd.String("env-file")); err != nil {
			return nil, err
		}

		configPath := cmd.String("config")
		switch _, err := os.Stat(configPath); {
		case err == nil:
			if config, err = shared.LoadConfig(configPath); err != nil {
				return nil, err
			}
			r.logger.Debug("loaded config", "path", configPath)
		case errors.Is(err, fs.ErrNotExist) && !cmd.IsSet("config"):
			config = shared.DefaultConfig()
		default:
			return nil, fmt.Errorf("%w: %s", shared.ErrMissingConfig, configPath)
		}

		config.ApplyEnv(r.lookupEnv)
	}

	if cmd.String("log-level") == "" {
		if err := shared.SetLogLevelString(r.logger, config.Log.Level); err != nil {
			return nil, err
		}
	}
	if v := cmd.String("token-path"); v != "" {
		config.Auth.TokenPath = v
	}
	if v := cmd.String("playlist"); v != "" {
		config.Shuffle.PlaylistID = v
	}
	if v := cmd.Int("batch-size"); v != 0 {
		config.Shuffle.BatchSize = v
	}
	if cmd.Bool("strict") {
		config.Shuffle.Strict = true
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	r.config = config
	return config, nil
}

// spotifyService creates the Spotify service from config.
func (r *Runner) spotifyService(config *shared.Config) (*services.SpotifyService, error) {
	var opts []services.SpotifyOption
	if config.Shuffle.Market != "" {
		opts = append(opts, services.WithMarket(config.Shuffle.Market))
	}
	return services.NewSpotifyService(config.Credentials.Spotify, config.Auth.Scopes, opts...)
}

func (r *Runner) newManager(config *shared.Config, authorizer auth.Authorizer) *auth.Manager {
	return auth.NewManager(auth.ManagerOpts{
		Cache:        auth.NewTokenCache(config.Auth.TokenPath),
		Authorizer:   authorizer,
		In:           r.input,
		Out:          r.output,
		Logger:       r.logger,
		Mode:         config.Auth.Mode,
		OpenBrowser:  config.Auth.OpenBrowser,
		CallbackAddr: config.Server.Addr(),
	})
}

// connect returns an authenticated library, acquiring a token on first use.
//
// Tokens refreshed by the HTTP transport during the run are written back to the cache.
func (r *Runner) connect(ctx context.Context, config *shared.Config) (services.Library, error) {
	if r.library != nil {
		return r.library, nil
	}

	svc, err := r.spotifyService(config)
	if err != nil {
		return nil, err
	}

	manager := r.newManager(config, svc)
	token, err := manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	svc.SetTokenRefreshCallback(func(t *oauth2.Token) {
		if err := manager.Cache().Save(t); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("persisted refreshed token", "expiry", t.Expiry)
	})

	if err := svc.OAuthenticate(ctx, token); err != nil {
		return nil, err
	}

	r.library = svc
	return svc, nil
}

// oauth returns the authorizer for auth commands.
func (r *Runner) oauth(config *shared.Config) (auth.Authorizer, error) {
	if r.authorizer != nil {
		return r.authorizer, nil
	}
	return r.spotifyService(config)
}

func (r *Runner) engine(lib services.Library) *tasks.ShuffleEngine {
	var opts []tasks.EngineOption
	if r.shuffle != nil {
		opts = append(opts, tasks.WithShuffleFunc(r.shuffle))
	}
	return tasks.NewShuffleEngine(lib, r.logger, opts...)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}
