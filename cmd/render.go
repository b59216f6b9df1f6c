package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/render"
	"github.com/urfave/cli/v3"
)

// RenderCommand creates the render command
func RenderCommand() *cli.Command {
	return &cli.Command{
		Name:      "render",
		Usage:     "Render a saved editor document to HTML",
		ArgsUsage: "[document.json|-]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write HTML to this file instead of stdout",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return renderDocument(c.String("config"), c.Args().First(), c.String("output"))
		},
	}
}

func renderDocument(configPath, input, output string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	renderer, err := buildRenderer(cfg)
	if err != nil {
		return err
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}

	html, err := render.NewConverter(renderer).ConvertJSON(data)
	if err != nil {
		return err
	}

	if output == "" {
		fmt.Println(html)
		return nil
	}
	if err := os.WriteFile(output, []byte(html+"\n"), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	return nil
}
