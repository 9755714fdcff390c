package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/bind"
	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"
)

const putWorkers = 10

var putOpts = struct {
	recursive bool
	append    bool
}{}

var put cli.Command = cli.Command{
	Name:  "put",
	Usage: "Copy local files into a container",
	Description: `Given a list of local files, copy them into storage.

	With a single source file, dest names the item to write:

	  blobbind put ./cat.jpg photos/2019/cat.jpg

	With several sources, or with -r, dest is a container or prefix into
	which content is copied, keeping paths relative to each source:

	  blobbind put -r ./2019 photos/archive/

	A source of "-" reads from stdin.  The container is created if it does not
	already exist.`,
	ArgsUsage: "src... dest",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:        "recursive, r",
			Usage:       "Recursively copy directory content",
			Destination: &putOpts.recursive,
		},
		cli.BoolFlag{
			Name:        "append",
			Usage:       "Append to an append item rather than replacing a block item",
			Destination: &putOpts.append,
		},
	},

	Action: func(c *cli.Context) error {
		return putAction(context.Background(), c.Args())
	},
}

type upload struct {
	src  string
	dest string
}

func putAction(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("too few arguments")
	}

	engine, err := newEngine()
	if err != nil {
		return err
	}

	dest := args[len(args)-1]
	srcs := args[:len(args)-1]

	if len(srcs) == 1 && !putOpts.recursive {
		return putOne(ctx, engine, upload{src: srcs[0], dest: dest})
	}

	g, ctx := errgroup.WithContext(ctx)
	q := make(chan upload, putWorkers)

	for i := 0; i < putWorkers; i++ {
		g.Go(func() error {
			for u := range q {
				if err := putOne(ctx, engine, u); err != nil {
					logrus.Errorf("Error putting content at %s: %s", u.dest, err)
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(q)
		return scan(ctx, q, srcs, dest)
	})

	return g.Wait()
}

func putOne(ctx context.Context, engine *bind.Engine, u upload) error {
	var src io.ReadCloser = os.Stdin
	if u.src != "-" {
		f, err := os.Open(u.src)
		if err != nil {
			return errors.Wrapf(err, "could not open file")
		}
		src = f
	}
	defer src.Close()

	w, err := openDest(ctx, engine, u.dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return errors.Wrapf(err, "could not copy %s", u.src)
	}

	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "could not write %s", u.dest)
	}

	logrus.Debugf("put %s -> %s", u.src, u.dest)
	return nil
}

func openDest(ctx context.Context, engine *bind.Engine, dest string) (io.WriteCloser, error) {
	if !putOpts.append {
		return bind.As[io.WriteCloser](engine.Bind(ctx, ref(dest, blobbind.Write), blobbind.ShapeOf(blobbind.WriteStream)))
	}

	item, err := bind.As[*bind.ItemHandle](engine.Bind(ctx, ref(dest, blobbind.Write), blobbind.ShapeOf(blobbind.AppendItem)))
	if err != nil {
		return nil, err
	}
	return item.OpenWrite(ctx)
}

// scan feeds every regular file under the given paths to the queue, with
// destinations relative to dest.
func scan(ctx context.Context, q chan<- upload, paths []string, dest string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return errors.Wrapf(err, "could not stat %s", p)
		}

		if !info.IsDir() {
			if err := enqueue(ctx, q, upload{src: p, dest: join(dest, filepath.Base(p))}); err != nil {
				return err
			}
			continue
		}

		if !putOpts.recursive {
			logrus.Warnf("Skipping directory %s, use -r to copy directories", p)
			continue
		}

		root := filepath.Clean(p)
		base := filepath.Base(root)
		err = godirwalk.Walk(root, &godirwalk.Options{
			Unsorted: true,
			Callback: func(osPathname string, de *godirwalk.Dirent) error {
				if !de.IsRegular() {
					return nil
				}

				rel, err := filepath.Rel(root, osPathname)
				if err != nil {
					return err
				}

				return enqueue(ctx, q, upload{
					src:  osPathname,
					dest: join(dest, path.Join(base, filepath.ToSlash(rel))),
				})
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func enqueue(ctx context.Context, q chan<- upload, u upload) error {
	select {
	case q <- u:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func join(dest, name string) string {
	return strings.TrimSuffix(dest, "/") + "/" + name
}
