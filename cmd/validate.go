package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/urfave/cli/v3"
)

// ValidateCommand creates the validate command
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate saved editor documents against the block schemas",
		ArgsUsage: "[document.json...]",
		Action: func(ctx context.Context, c *cli.Command) error {
			inputs := c.Args().Slice()
			if len(inputs) == 0 {
				inputs = []string{"-"}
			}
			return validateDocuments(c.String("config"), inputs)
		},
	}
}

func validateDocuments(configPath string, inputs []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	renderer, err := buildRenderer(cfg)
	if err != nil {
		return err
	}
	reg := renderer.Registry()

	failed := 0
	for _, input := range inputs {
		name := input
		if name == "-" {
			name = "stdin"
		}

		if err := validateInput(reg, input); err != nil {
			failed++
			fmt.Printf("%s %s\n  %s\n", failStyle.Render("✗"), nameStyle.Render(name), describeValidationError(err))
			continue
		}
		fmt.Printf("%s %s\n", okStyle.Render("✓"), nameStyle.Render(name))
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d documents failed validation", failed, len(inputs)), 1)
	}
	return nil
}

func validateInput(reg *core.Registry, input string) error {
	data, err := readInput(input)
	if err != nil {
		return err
	}
	doc, err := core.ParseDocument(data)
	if err != nil {
		return err
	}
	return core.ValidateDocument(reg, doc)
}

func describeValidationError(err error) string {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return metaStyle.Render(ve.Path) + " " + strings.TrimPrefix(ve.Error(), ve.Path+": ")
	}
	return err.Error()
}
