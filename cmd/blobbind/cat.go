package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/bind"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

var cat cli.Command = cli.Command{
	Name:      "cat",
	Usage:     "Write the content of items to stdout",
	ArgsUsage: "container/item...",
	Action: func(c *cli.Context) error {
		if len(c.Args()) == 0 {
			return fmt.Errorf("cat needs at least one item")
		}
		return catAction(context.Background(), c.Args())
	},
}

func catAction(ctx context.Context, paths []string) error {
	engine, err := newEngine()
	if err != nil {
		return err
	}

	for _, path := range paths {
		r, err := bind.As[io.ReadCloser](engine.Bind(ctx, ref(path, blobbind.Read), blobbind.ShapeOf(blobbind.Stream)))
		if err != nil {
			return err
		}

		_, err = io.Copy(os.Stdout, r)
		r.Close()
		if err != nil {
			return errors.Wrapf(err, "could not read %s", path)
		}
	}
	return nil
}
