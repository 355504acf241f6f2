package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/likeshuffle/internal/shared"
	"github.com/desertthunder/likeshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the example configuration to --config.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	r.logger.Info("config file created", "path", path)
	r.writePlainln("%s", ui.Styles.OK("Wrote %s", path))
	return r.writePlainln("%s", ui.Styles.Help("Set %s and %s in the environment or a .env file.", shared.EnvClientID, shared.EnvClientSecret))
}
