package main

import (
	"fmt"
	"time"

	"github.com/civicpulse/mayoralert/middleware"
	"github.com/civicpulse/mayoralert/types"
	"github.com/urfave/cli/v2"
)

func newTokenCmd() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print a signed bearer token for a user",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user id placed in the id claim",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "role",
				Usage: "role placed in the role claim",
				Value: string(types.RoleMayor),
			},
			&cli.DurationFlag{
				Name:  "ttl",
				Usage: "token lifetime",
				Value: 24 * time.Hour,
			},
		},
		Action: func(c *cli.Context) error {
			auth, err := middleware.NewAuth(c.String("jwt-secret"), getLogger(c))
			if err != nil {
				return err
			}

			token, err := auth.SignToken(middleware.Identity{
				UserID: c.String("user"),
				Role:   types.Role(c.String("role")),
			}, c.Duration("ttl"), time.Now())
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			_, err = fmt.Fprintln(c.App.Writer, token)

			return err
		},
	}
}
