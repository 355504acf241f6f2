// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

const (
	appName           = "likeshuffle"
	defaultConfigPath = "likeshuffle.toml"
)

// newApp builds the root command. Running it without a subcommand shuffles.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     appName,
		Usage:    "Rewrite a Spotify playlist with your liked songs in random order",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Action:   r.Shuffle,
		Commands: r.register(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   defaultConfigPath,
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file with SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET",
			Value: ".env",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error)",
		},
		&cli.StringFlag{
			Name:  "token-path",
			Usage: "Token cache file (overrides auth.token_path)",
		},
		&cli.StringFlag{
			Name:    "playlist",
			Aliases: []string{"p"},
			Usage:   "Target playlist ID (overrides shuffle.playlist_id)",
		},
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Tracks per append request, at most 100",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Fetch and shuffle without modifying the playlist",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "Exit with an error when any playlist write fails",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output a JSON summary instead of progress lines",
		},
	}
}

// shuffleCommand runs the shuffle explicitly
func shuffleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "shuffle",
		Usage:  "Replace the target playlist with your liked songs in random order",
		Action: r.Shuffle,
	}
}

// tracksCommand lists liked songs
func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tracks",
		Aliases: []string{"ls"},
		Usage:   "List your liked songs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (text, csv, markdown)",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the listing to a file instead of stdout",
			},
		},
		Action: r.Tracks,
	}
}

// authCommand handles the token cache
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize again and overwrite the token cache",
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Delete the token cache",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show whether the cached token can be used, without network calls",
				Action: r.AuthStatus,
			},
		},
	}
}

// configCommand handles configuration files
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write an example configuration file",
				Action: r.ConfigInit,
			},
		},
	}
}
