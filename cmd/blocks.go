package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/core"
	"github.com/urfave/cli/v3"
)

// BlocksCommand creates the blocks command
func BlocksCommand() *cli.Command {
	return &cli.Command{
		Name:  "blocks",
		Usage: "List registered block types and their fields",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show field definitions",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listBlocks(c.String("config"), c.Bool("verbose"))
		},
	}
}

func listBlocks(configPath string, verbose bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	renderer, err := buildRenderer(cfg)
	if err != nil {
		return err
	}
	reg := renderer.Registry()

	fmt.Println(titleStyle.Render(fmt.Sprintf("%d block types", reg.Len())))
	for _, schema := range reg.Schemas() {
		kind := "block"
		if schema.Inline() {
			kind = "inline tool"
		}
		fmt.Printf("%s %s\n", nameStyle.Render(schema.Type), metaStyle.Render(kind))
		if !verbose {
			continue
		}
		if schema.TemplateID != "" {
			fmt.Printf("  template: %s\n", schema.TemplateID)
		}
		printFields(schema.Fields, "  ")
	}
	return nil
}

func printFields(fields []core.Field, indent string) {
	for _, f := range fields {
		fmt.Printf("%s%s: %s\n", indent, f.Name, describeSpec(f.Spec))
		if f.Spec.Kind == core.KindObject {
			printFields(f.Spec.Children, indent+"  ")
		}
		for item := f.Spec.Items; item != nil; item = item.Items {
			if item.Kind == core.KindObject {
				printFields(item.Children, indent+"  ")
			}
		}
	}
}

func describeSpec(spec core.FieldSpec) string {
	parts := []string{string(spec.Kind)}
	for item := spec.Items; item != nil; item = item.Items {
		parts[0] += " of " + string(item.Kind)
	}
	if spec.Optional {
		parts = append(parts, "optional")
	}
	if len(spec.AllowedValues) > 0 {
		parts = append(parts, "one of "+core.FormatValue(spec.AllowedValues))
	}
	if spec.AllowedTags != nil {
		parts = append(parts, "tags "+spec.AllowedTags.Key())
	}
	return metaStyle.Render(strings.Join(parts, ", "))
}
