package main

import (
	"context"

	"github.com/desertthunder/likeshuffle/internal/auth"
	"github.com/desertthunder/likeshuffle/internal/ui"
	"github.com/urfave/cli/v3"
)

// authStatus is the --json form of auth status.
type authStatus struct {
	State      string `json:"state"`
	TokenPath  string `json:"token_path"`
	Expiry     string `json:"expiry,omitempty"`
	Refresh    bool   `json:"has_refresh_token"`
	AccessLive bool   `json:"access_token_valid"`
}

// AuthLogin runs the authorization flow regardless of the cache and saves the new token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd, true)
	if err != nil {
		return err
	}

	authorizer, err := r.oauth(config)
	if err != nil {
		return err
	}

	manager := r.newManager(config, authorizer)
	token, err := manager.Authorize(ctx)
	if err != nil {
		return err
	}

	if err := manager.Cache().Save(token); err != nil {
		return err
	}

	r.logger.Info("authorization complete", "path", config.Auth.TokenPath)
	return r.writePlainln("%s", ui.Styles.OK("Token saved to %s", config.Auth.TokenPath))
}

// AuthLogout deletes the token cache.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd, false)
	if err != nil {
		return err
	}

	if err := auth.NewTokenCache(config.Auth.TokenPath).Clear(); err != nil {
		return err
	}

	return r.writePlainln("%s", ui.Styles.OK("Removed %s", config.Auth.TokenPath))
}

// AuthStatus reports how the next run would authenticate, without network calls.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd, false)
	if err != nil {
		return err
	}

	state, token := r.newManager(config, nil).Resolve()
	status := authStatus{State: state.String(), TokenPath: config.Auth.TokenPath}
	if token != nil {
		status.Refresh = token.RefreshToken != ""
		status.AccessLive = token.Valid()
		if !token.Expiry.IsZero() {
			status.Expiry = token.Expiry.Format("2006-01-02 15:04:05 MST")
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlainln("%s", ui.Styles.Title("Token cache: %s", status.TokenPath))
	r.writePlainln("State: %s", status.State)
	if state == auth.NeedsAuthorization {
		return r.writePlainln("%s", ui.Styles.Help("The next run will ask you to authorize in the browser."))
	}

	r.writePlainln("Refresh token: %s", yesNo(status.Refresh))
	r.writePlainln("Access token valid: %s", yesNo(status.AccessLive))
	if status.Expiry != "" {
		r.writePlainln("Expires: %s", status.Expiry)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
