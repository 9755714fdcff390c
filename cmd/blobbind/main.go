package main

import (
	"os"

	"github.com/birkland/blobbind"
	"github.com/birkland/blobbind/bind"
	"github.com/birkland/blobbind/config"
	"github.com/birkland/blobbind/resolv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	_ "github.com/birkland/blobbind/drivers/azure"
	_ "github.com/birkland/blobbind/drivers/fs"
	_ "github.com/birkland/blobbind/drivers/memory"
	_ "github.com/birkland/blobbind/drivers/s3"
)

var mainOpts = struct {
	config   string
	account  string
	logLevel string
}{}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	app := cli.NewApp()
	app.Name = "blobbind"
	app.Usage = "Bind storage references to streams, items and containers"
	app.EnableBashCompletion = true
	app.Commands = []cli.Command{
		cat,
		describe,
		ls,
		mkcontainer,
		put,
		substrateCmd,
	}
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "config, c",
			Usage:       "Config file (yaml or toml)",
			EnvVar:      "BLOBBIND_CONFIG",
			Destination: &mainOpts.config,
		},
		cli.StringFlag{
			Name:        "account, a",
			Usage:       "Storage account (default from config)",
			Destination: &mainOpts.account,
		},
		cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (overrides config)",
			Destination: &mainOpts.logLevel,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(mainOpts.config)
	if err != nil {
		return nil, err
	}

	if mainOpts.logLevel != "" {
		cfg.Log.Level = mainOpts.logLevel
	}

	if err := config.ConfigureLogging(logrus.StandardLogger(), cfg.Log); err != nil {
		return nil, errors.Wrapf(err, "could not configure logging")
	}

	return cfg, nil
}

func newEngine() (*bind.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	reg, err := bind.Default()
	if err != nil {
		return nil, errors.Wrapf(err, "could not build binding rules")
	}

	opts := []bind.Option{
		bind.WithSink(bind.LogSink{}),
	}
	if cfg.Parallelism > 0 {
		opts = append(opts, bind.WithParallelism(cfg.Parallelism))
	}

	return bind.NewEngine(reg, resolv.NewResolver(cfg.Provider(), cfg.Names(), nil), opts...), nil
}

func ref(path string, access blobbind.Access) blobbind.Reference {
	return blobbind.Reference{
		Path:    path,
		Access:  access,
		Account: mainOpts.account,
	}
}
