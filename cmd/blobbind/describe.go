package main

import (
	"context"
	"fmt"

	"github.com/birkland/blobbind"
	"github.com/urfave/cli"
)

var describeOpts = struct {
	shape  string
	access string
}{}

var describe cli.Command = cli.Command{
	Name:  "describe",
	Usage: "Describe how a path would be bound",
	Description: `Resolves a path for the given shape without opening anything, and
	prints the account, container, item and access mode it would bind.

	Shapes are kind names (stream, textreader, blockitem, container...), or
	collection(kind) for collections.`,
	ArgsUsage: "path",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:        "shape, s",
			Usage:       "Shape to bind",
			Value:       "item",
			Destination: &describeOpts.shape,
		},
		cli.StringFlag{
			Name:        "access",
			Usage:       "Declared access mode {read, write, readwrite}",
			Destination: &describeOpts.access,
		},
	},
	Action: func(c *cli.Context) error {
		if len(c.Args()) != 1 {
			return fmt.Errorf("describe takes exactly one argument")
		}
		return describeAction(context.Background(), c.Args()[0])
	},
}

func describeAction(ctx context.Context, path string) error {
	access, err := blobbind.ParseAccess(describeOpts.access)
	if err != nil {
		return err
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	d, ok, err := engine.Describe(ctx, ref(path, access), blobbind.ParseShape(describeOpts.shape))
	if err != nil {
		return err
	}

	if !ok {
		fmt.Println("no description available")
		return nil
	}

	fmt.Printf("account:   %s\ncontainer: %s\nitem:      %s\naccess:    %s\n",
		d.Account, d.Container, d.Item, d.Access)
	return nil
}
