package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/storage"
	"github.com/urfave/cli/v3"
)

// UploadsCommand creates the uploads command
func UploadsCommand() *cli.Command {
	return &cli.Command{
		Name:  "uploads",
		Usage: "List and prune stored uploads",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the most recent uploads",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of uploads to show (0 for no limit)",
						Value: 50,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return listUploads(ctx, c.String("config"), c.Int("limit"))
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an upload and its file",
				ArgsUsage: "<id>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("expected exactly one upload id")
					}
					return deleteUpload(ctx, c.String("config"), c.Args().First())
				},
			},
			{
				Name:  "optimize",
				Usage: "Prune expired link previews and optimize the database",
				Action: func(ctx context.Context, c *cli.Command) error {
					return optimizeStorage(ctx, c.String("config"))
				},
			},
		},
	}
}

func openStore(configPath string) (*storage.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := storage.Open(cfg.StorageDir, cfg.LinkTool.CacheTTL.Duration)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	return store, nil
}

func listUploads(ctx context.Context, configPath string, limit int) error {
	store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	uploads, err := store.Files.List(ctx, limit)
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		fmt.Println(noDataStyle.Render("No uploads stored yet"))
		return nil
	}

	var total int64
	for _, up := range uploads {
		total += up.Size
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("%d uploads, %s", len(uploads), humanize.IBytes(uint64(total)))))

	for _, up := range uploads {
		fmt.Printf("%s %s %s\n  %s\n",
			nameStyle.Render(up.Name),
			humanize.IBytes(uint64(up.Size)),
			metaStyle.Render(fmt.Sprintf("%s, %s", up.Kind, humanize.RelTime(up.CreatedAt, time.Now(), "ago", "from now"))),
			metaStyle.Render(up.ID+" -> "+store.Files.Path(up)),
		)
	}
	return nil
}

func deleteUpload(ctx context.Context, configPath, id string) error {
	store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Files.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting upload %s: %w", id, err)
	}
	fmt.Printf("Deleted upload %s\n", id)
	return nil
}

func optimizeStorage(ctx context.Context, configPath string) error {
	store, err := openStore(configPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Links.Prune(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Pruned %d expired link previews\n", n)

	if err := store.Optimize(); err != nil {
		return err
	}
	if err := store.Vacuum(); err != nil {
		return err
	}
	fmt.Println("✓ Database optimized")
	return nil
}
