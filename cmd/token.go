package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rubiojr/edjs/pkg/config"
	"github.com/rubiojr/edjs/pkg/gate"
	"github.com/urfave/cli/v3"
)

// TokenCommand creates the token command
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a backend session token for the plugin endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "subject",
				Usage: "Token subject (the backend user)",
				Value: "admin",
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "Token lifetime",
				Value: 12 * time.Hour,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return issueToken(c.String("config"), c.String("subject"), c.Duration("ttl"))
		},
	}
}

func issueToken(configPath, subject string, ttl time.Duration) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	session := gate.NewJWTSession(cfg.Session.Cookie, cfg.Session.Secret)
	token, err := session.Issue(subject, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
