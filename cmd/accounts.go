package main

import (
	"context"
	"fmt"

	"github.com/pnavk/gMusic/internal/models"
	"github.com/pnavk/gMusic/internal/providers"
	"github.com/pnavk/gMusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// supportedServices is the set of services offered for sign-in, in display order.
var supportedServices = []models.ServiceType{
	models.ServiceGoogle,
	models.ServiceYouTube,
	models.ServiceSoundCloud,
	models.ServiceAmazon,
	models.ServiceOneDrive,
	models.ServiceTunez,
}

// accountStatus is the JSON shape emitted by "accounts --json".
type accountStatus struct {
	Service  string `json:"service"`
	Account  string `json:"account,omitempty"`
	SignedIn bool   `json:"signed_in"`
}

// ListAccounts prints each supported service and the account signed into it.
func (r *Runner) ListAccounts(ctx context.Context, cmd *cli.Command) error {
	return r.withManager(ctx, func(manager *providers.Manager) error {
		statuses := make([]accountStatus, 0, len(supportedServices))
		for _, service := range supportedServices {
			account := manager.GetAccount(service)
			statuses = append(statuses, accountStatus{
				Service:  service.Title(),
				Account:  account,
				SignedIn: account != "",
			})
		}

		if cmd.Bool("json") {
			return r.writeJSON(statuses, cmd.Bool("pretty"))
		}

		for _, status := range statuses {
			if status.SignedIn {
				r.writePlainln("● %s (%s)", status.Service, status.Account)
			} else {
				r.writePlainln("○ %s", status.Service)
			}
		}
		return nil
	})
}

// Login signs into the named service, creating and authenticating a fresh
// account when none exists.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	service, err := serviceArg(cmd)
	if err != nil {
		return err
	}

	return r.withManager(ctx, func(manager *providers.Manager) error {
		if account := manager.GetAccount(service); account != "" {
			r.writePlainln("Already signed into %s as %s", service.Title(), account)
			return nil
		}

		if !manager.CreateAndLogin(ctx, service) {
			r.writePlainln("Login to %s did not complete", service.Title())
			return nil
		}

		r.writePlainln("✓ Signed into %s as %s", service.Title(), manager.GetAccount(service))
		return nil
	})
}

// Logout signs out of the named service and removes its saved account.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	service, err := serviceArg(cmd)
	if err != nil {
		return err
	}

	return r.withManager(ctx, func(manager *providers.Manager) error {
		if err := manager.Logout(ctx, service); err != nil {
			return fmt.Errorf("failed to log out of %s: %w", service.Title(), err)
		}

		r.writePlainln("✓ Signed out of %s", service.Title())
		return nil
	})
}

// serviceArg parses the required service-name positional argument.
func serviceArg(cmd *cli.Command) (models.ServiceType, error) {
	name := cmd.Args().First()
	if name == "" {
		return models.ServiceUnknown, fmt.Errorf("%w: service name", shared.ErrMissingArgument)
	}

	service, err := models.ParseServiceType(name)
	if err != nil {
		return models.ServiceUnknown, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	return service, nil
}

// accountsCommand lists supported services and their sign-in state.
func accountsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "accounts",
		Usage: "List services and signed-in accounts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
			&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print JSON output"},
		},
		Action: r.ListAccounts,
	}
}

// loginCommand signs into a service.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "login",
		Usage:     "Sign into a music service",
		ArgsUsage: "<service>",
		Action:    r.Login,
	}
}

// logoutCommand signs out of a service.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "logout",
		Usage:     "Sign out of a music service",
		ArgsUsage: "<service>",
		Action:    r.Logout,
	}
}
