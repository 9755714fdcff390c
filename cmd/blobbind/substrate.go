package main

import (
	"fmt"

	"github.com/urfave/cli"
)

var substrateCmd cli.Command = cli.Command{
	Name:  "substrate",
	Usage: "Describe the configured execution substrate",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println(cfg.Substrate.Describe())
		return nil
	},
}
