package main

import (
	"context"
	"fmt"

	"github.com/birkland/blobbind"
	"github.com/urfave/cli"
)

var mkcontainer cli.Command = cli.Command{
	Name:  "mkcontainer",
	Usage: "Creates a container",
	Description: `Creates the named container if it does not already exist.  An
	existing container is left alone.`,
	ArgsUsage: "container",
	Action: func(c *cli.Context) error {
		if len(c.Args()) != 1 {
			return fmt.Errorf("mkcontainer takes exactly one argument")
		}
		return mkcontainerAction(context.Background(), c.Args()[0])
	},
}

func mkcontainerAction(ctx context.Context, name string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	_, err = engine.Bind(ctx, ref(name, blobbind.Write), blobbind.ShapeOf(blobbind.BlobContainer))
	return err
}
