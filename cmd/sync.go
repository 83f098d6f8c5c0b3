package main

import (
	"context"
	"fmt"

	"github.com/pnavk/gMusic/internal/providers"
	"github.com/urfave/cli/v3"
)

// Sync refreshes every signed-in account and pulls its catalog into the
// local database, resuming any interrupted runs.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	return r.withManager(ctx, func(manager *providers.Manager) error {
		if len(manager.Providers()) == 0 {
			r.writePlainln("No accounts to sync. Run 'gmusic login <service>' first.")
			return nil
		}

		if err := manager.StartSync(ctx); err != nil {
			return fmt.Errorf("sync finished with failures: %w", err)
		}

		r.writePlainln("✓ Sync complete")
		return nil
	})
}

// Resync re-pulls every account's catalog without the account refresh pass.
func (r *Runner) Resync(ctx context.Context, cmd *cli.Command) error {
	return r.withManager(ctx, func(manager *providers.Manager) error {
		if len(manager.Providers()) == 0 {
			r.writePlainln("No accounts to sync. Run 'gmusic login <service>' first.")
			return nil
		}

		if err := manager.ReSync(ctx); err != nil {
			return fmt.Errorf("resync finished with failures: %w", err)
		}

		r.writePlainln("✓ Resync complete")
		return nil
	})
}

// syncCommand runs the full sync pass across all accounts.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Refresh accounts and sync all catalogs",
		Action: r.Sync,
	}
}

// resyncCommand re-pulls catalogs for all accounts.
func resyncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "resync",
		Usage:  "Re-sync all catalogs without refreshing accounts",
		Action: r.Resync,
	}
}
