package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/diffrisk/internal/config"
)

// ConfigCommand returns the config command.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage diffrisk configuration",
		Subcommands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Write a sample configuration file",
				ArgsUsage: "[PATH]",
				Action: func(c *cli.Context) error {
					path := c.Args().Get(0)
					if path == "" {
						path = "diffrisk.toml"
					}
					if err := config.InitConfig(path); err != nil {
						return err
					}
					fmt.Printf("Wrote sample configuration to %s\n", path)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Check that the configuration can serve the default provider",
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}
					if err := config.Validate(cfg); err != nil {
						return fmt.Errorf("invalid configuration: %w", err)
					}
					fmt.Println("Configuration OK")
					return nil
				},
			},
		},
	}
}
