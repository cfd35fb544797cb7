package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/pipeline"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/version"
	"github.com/robinjoseph08/golib/logger"
	"github.com/urfave/cli/v2"
)

const databaseFileName = "KoboReader.sqlite"

func main() {
	log := logger.New()

	app := &cli.App{
		Name:    "composite",
		Usage:   "generate composite markup images from a Kobo device",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database",
				Aliases:  []string{"d"},
				Usage:    "path to the device's KoboReader.sqlite",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "markups directory (usually .kobo/markups)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "directory to write composite images under",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "mode",
				Usage: "compositing mode: fixed or crop",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "optional YAML config file",
			},
			&cli.BoolFlag{
				Name:  "allow-any-input",
				Usage: "skip the KoboReader.sqlite / markups path-name checks",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log database queries",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("composite failed")
	}
}

func run(c *cli.Context) error {
	log := logger.New()

	cfg, err := config.New(c.String("config"))
	if err != nil {
		return err
	}

	cfg.DatabasePath = c.String("database")
	cfg.InputDir = c.String("input")
	cfg.OutputDir = c.String("output")
	if mode := c.String("mode"); mode != "" {
		cfg.Mode = mode
	}
	if c.Bool("debug") {
		cfg.DatabaseDebug = true
	}

	if !c.Bool("allow-any-input") {
		if err := checkNamingPolicy(cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Info("starting composite run", logger.Data{
		"version": version.Version,
		"mode":    cfg.Mode,
		"input":   cfg.InputDir,
		"output":  cfg.OutputDir,
	})

	hooks := pipeline.Hooks{
		OnProgress: func(completed, total int) {
			log.Info("progress", logger.Data{"completed": completed, "total": total})
		},
		OnLog: func(line string) {
			fmt.Fprintln(os.Stdout, line)
		},
		OnComplete: func(summary string) {
			fmt.Fprintln(os.Stdout, summary)
		},
	}

	driver := pipeline.New(cfg, hooks)
	_, err = driver.Run(c.Context)
	return err
}

// checkNamingPolicy enforces the device-layout conventions: the database file
// is named KoboReader.sqlite and the input directory sits under a markups
// folder. Both are host policy, not core requirements, and can be skipped
// with --allow-any-input.
func checkNamingPolicy(cfg *config.Config) error {
	if !strings.EqualFold(filepath.Base(cfg.DatabasePath), databaseFileName) {
		return errcodes.Validationf("selected file is not %s: %s", databaseFileName, cfg.DatabasePath)
	}

	normalized := strings.ReplaceAll(cfg.InputDir, "\\", "/")
	if !strings.Contains(normalized, "/markups") {
		return errcodes.Validationf("input directory path must contain a markups segment: %s", cfg.InputDir)
	}
	return nil
}
