// ABOUTME: Migrate command manages the postgres schema
// ABOUTME: SQLite databases create their schema on open and need no migrations
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harper/stash/internal/config"
	"github.com/harper/stash/internal/storage/postgres"
)

var migrateSteps int

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down|version]",
		Short: "Apply or roll back postgres migrations",
		Long: `Apply or roll back the embedded postgres migrations.

Only used with database.driver = postgres; SQLite creates its
schema automatically.

Examples:
  stash migrate up
  stash migrate down --steps 1
  stash migrate version`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "version"},
		RunE:      runMigrate,
	}

	cmd.Flags().IntVar(&migrateSteps, "steps", 0, "Number of migrations to apply (0 means all)")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	direction := "up"
	if len(args) > 0 {
		direction = args[0]
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		notify(cmd, "database.driver is %s; migrations only apply to postgres", cfg.Database.Driver)
		return nil
	}

	switch direction {
	case "version":
		version, dirty, err := postgres.MigrationVersion(cfg.Database.URL)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
		return nil
	case "up", "down":
		if migrateSteps < 0 {
			return fmt.Errorf("steps must not be negative, got %d", migrateSteps)
		}
		if err := postgres.Migrate(cfg.Database.URL, direction, migrateSteps); err != nil {
			return fmt.Errorf("migrate %s: %w", direction, err)
		}
		notify(cmd, "%s", success("Migrations applied ("+direction+")"))
		return nil
	default:
		return fmt.Errorf("unknown direction %q (want up, down, or version)", direction)
	}
}
