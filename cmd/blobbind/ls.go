package main

import (
	"context"
	"fmt"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/bind"
	"github.com/birkland/blobbind/blobpath"
	"github.com/urfave/cli"
)

var lsOpts = struct {
	dirs bool
	long bool
}{}

var ls cli.Command = cli.Command{
	Name:  "ls",
	Usage: "List the items in a container",
	Description: `Given a container, or a container and a prefix, list every item
	underneath it.

	For example, the following lists every item under 2019/ in the
	photos container, including those in nested paths

	  blobbind ls photos/2019/

	With --dirs, only the items directly within the prefix are listed, along 
	with its subdirectories.`,
	ArgsUsage: "container[/prefix]",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "dirs, d",
			Usage:       "List one directory level at a time",
			Destination: &lsOpts.dirs,
		},
		cli.BoolFlag{
			Name:        "long, l",
			Usage:       "Show item kinds",
			Destination: &lsOpts.long,
		},
	},

	Action: func(c *cli.Context) error {
		if len(c.Args()) != 1 {
			return fmt.Errorf("ls takes exactly one argument")
		}
		return lsAction(context.Background(), c.Args()[0])
	},
}

func lsAction(ctx context.Context, path string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	if lsOpts.dirs {
		return lsDirs(ctx, engine, path)
	}

	items, err := bind.As[[]*bind.ItemHandle](engine.Bind(ctx, ref(path, blobbind.Read), blobbind.CollectionOf(blobbind.BaseItem)))
	if err != nil {
		return err
	}

	for _, item := range items {
		if lsOpts.long {
			fmt.Printf("%-8s%s\n", item.Kind(), item.Name())
			continue
		}
		fmt.Println(item.Name())
	}
	return nil
}

func lsDirs(ctx context.Context, engine *bind.Engine, path string) error {
	p, err := blobpath.Parse(path, false)
	if err != nil {
		return err
	}

	dir, err := bind.As[*bind.Directory](engine.Bind(ctx, ref(p.Container, blobbind.Read), blobbind.ShapeOf(blobbind.Directory)))
	if err != nil {
		return err
	}

	if p.HasItem {
		dir = dir.Sub(p.Item)
	}

	items, dirs, err := dir.List(ctx)
	if err != nil {
		return err
	}

	for _, d := range dirs {
		fmt.Println(d.Prefix())
	}
	for _, item := range items {
		if lsOpts.long {
			fmt.Printf("%-8s%12d  %s\n", item.Kind, item.Size, item.Name)
			continue
		}
		fmt.Println(item.Name)
	}
	return nil
}
