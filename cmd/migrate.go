package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/db"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
				Value: false,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return RunMigrations(c.String("config"), c.Bool("status"))
		},
	}
}

// RunMigrations handles the migration process (exported for testing)
func RunMigrations(configPath string, statusOnly bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	dbPath := filepath.Join(cfg.StorageDir, storage.DatabaseName)
	conn, err := storage.OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	mgr := db.NewMigrationManager(conn)
	status, err := mgr.GetMigrationStatus()
	if err != nil {
		return fmt.Errorf("getting migration status: %w", err)
	}

	fmt.Println(titleStyle.Render(dbPath))
	for _, m := range status.Applied {
		fmt.Printf("%s %03d %s %s\n", okStyle.Render("✓"), m.Version, m.Name,
			metaStyle.Render(m.AppliedAt.Format("2006-01-02 15:04:05")))
	}
	for _, m := range status.Pending {
		fmt.Printf("%s %03d %s\n", failStyle.Render("•"), m.Version, m.Name)
	}

	if statusOnly || len(status.Pending) == 0 {
		if len(status.Pending) == 0 {
			fmt.Println("Database is up to date")
		}
		return nil
	}

	if err := mgr.ApplyPendingMigrations(); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	fmt.Printf("Applied %d migrations\n", len(status.Pending))
	return nil
}
