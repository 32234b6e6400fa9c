/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"photolayouts/internal/appctx"
	"photolayouts/internal/config"
	"photolayouts/internal/crash"
	"photolayouts/internal/export"
	applog "photolayouts/internal/log"
	"photolayouts/internal/ui"
	"photolayouts/internal/version"
	"photolayouts/internal/worker"
)

func main() {
	ref := &crash.Ref{}
	defer crash.Recover(ref)
	if err := newApp(ref, os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

// newApp builds the command line. Documents opened by a command are
// registered with ref so a crash can autosave them.
func newApp(ref *crash.Ref, out io.Writer) *cli.App {
	var a *appctx.App
	return &cli.App{
		Name:      "photolayouts",
		Usage:     "arrange photos and text on a page",
		Version:   version.String(),
		ArgsUsage: "[file.ple ...]",
		Writer:    out,
		// main decides the exit code
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "config file (default: per-user config.yaml)", EnvVars: []string{config.EnvConfigFile}},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			var err error
			a, err = setup(c)
			return err
		},
		After: func(*cli.Context) error {
			if a != nil {
				return a.Close()
			}
			return nil
		},
		Action: func(c *cli.Context) error {
			return ui.Run(a, c.Args().Slice())
		},
		Commands: []*cli.Command{
			{
				Name:      "info",
				Usage:     "load documents and print a summary of each",
				ArgsUsage: "file.ple ...",
				Action: func(c *cli.Context) error {
					if c.NArg() == 0 {
						return cli.Exit("info requires at least one file", 2)
					}
					return ui.RunHeadless(a, c.Args().Slice(), out)
				},
			},
			{
				Name:      "export",
				Usage:     "render a document to PNG or PDF",
				ArgsUsage: "file.ple",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file", Required: true},
					&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: "web or print", Value: string(export.PresetWeb)},
					&cli.StringFlag{Name: "format", Usage: "png or pdf (default: from the output extension)"},
					&cli.Float64Flag{Name: "dpi", Usage: "resolution (default: preset)"},
					&cli.BoolFlag{Name: "grid", Usage: "include the grid"},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("export requires exactly one file", 2)
					}
					return exportFile(a, ref, c.Args().First(), c.String("out"), exportOptions(c), out)
				},
			},
			{
				Name:  "recent",
				Usage: "list recently opened documents",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "templates", Aliases: []string{"t"}, Usage: "list saved templates instead"},
				},
				Action: func(c *cli.Context) error {
					return listRecent(c.Context, a, c.Bool("templates"), out)
				},
			},
			{
				Name:  "fonts",
				Usage: "manage the user fonts",
				Subcommands: []*cli.Command{
					{
						Name:  "list",
						Usage: "print the loaded font families",
						Action: func(*cli.Context) error {
							fams := a.Fonts.Families()
							sort.Strings(fams)
							for _, f := range fams {
								fmt.Fprintln(out, f)
							}
							return nil
						},
					},
					{
						Name:      "install",
						Usage:     "install the fonts of a font pack",
						ArgsUsage: "pack.zip",
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return cli.Exit("install requires a pack file", 2)
							}
							n, err := a.InstallFonts(c.Args().First())
							if err != nil {
								return err
							}
							fmt.Fprintf(out, "Installed %d fonts into %s\n", n, a.FontsDir())
							return nil
						},
					},
					{
						Name:      "export",
						Usage:     "write the user fonts to a font pack",
						ArgsUsage: "pack.zip",
						Action: func(c *cli.Context) error {
							if c.NArg() != 1 {
								return cli.Exit("export requires a pack file", 2)
							}
							n, err := a.ExportFonts(c.Args().First())
							if err != nil {
								return err
							}
							fmt.Fprintf(out, "Exported %d fonts\n", n)
							return nil
						},
					},
				},
			},
			{
				Name:  "config",
				Usage: "show or initialize the configuration file",
				Subcommands: []*cli.Command{
					{
						Name:  "path",
						Usage: "print the config file path",
						Action: func(*cli.Context) error {
							p, err := config.ConfigPath()
							if err != nil {
								return err
							}
							fmt.Fprintln(out, p)
							return nil
						},
					},
					{
						Name:  "init",
						Usage: "write the defaults unless a config file exists",
						Action: func(*cli.Context) error {
							p, err := config.ConfigPath()
							if err != nil {
								return err
							}
							if _, err := os.Stat(p); err == nil {
								return cli.Exit(p+" already exists", 1)
							}
							if err := config.Save(config.Defaults()); err != nil {
								return err
							}
							fmt.Fprintln(out, "Wrote", p)
							return nil
						},
					},
				},
			},
		},
	}
}

// setup loads the configuration, initializes logging from it and builds the
// shared application objects.
func setup(c *cli.Context) (*appctx.App, error) {
	if p := c.String("config"); p != "" {
		if err := os.Setenv(config.EnvConfigFile, p); err != nil {
			return nil, err
		}
	}
	cfg, cerr := config.Load()
	opts := applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	}
	if lvl := c.String("log-level"); lvl != "" {
		opts.Level = lvl
	}
	applog.Init(opts)
	l := applog.WithComponent("cli")
	if cerr != nil {
		l.Warn("config ignored, using defaults", slog.Any("err", cerr))
	}
	l.Debug("start", slog.Int("args", c.NArg()))
	return appctx.New(cfg)
}

func exportOptions(c *cli.Context) export.Options {
	opt := export.Options{
		Preset: export.PresetName(c.String("preset")),
		Format: c.String("format"),
		DPI:    c.Float64("dpi"),
	}
	if c.IsSet("grid") {
		grid := c.Bool("grid")
		opt.IncludeGrid = &grid
	}
	return opt
}

func exportFile(a *appctx.App, ref *crash.Ref, in, outPath string, opt export.Options, out io.Writer) error {
	l := applog.WithOperation(applog.WithComponent("cli"), "export")
	doc, sum := ui.OpenAndWait(a, in)
	if doc == nil {
		return sum.Err
	}
	defer doc.Close()
	ref.Set(doc)
	var le *worker.LoadError
	if sum.Err != nil && !errors.As(sum.Err, &le) {
		return sum.Err
	}
	if le != nil {
		l.Warn("exporting a partly loaded document", slog.Any("err", sum.Err))
	}
	if err := doc.Export(outPath, opt); err != nil {
		return err
	}
	l.Info("exported", slog.String("in", in), slog.String("out", outPath))
	fmt.Fprintln(out, "Exported", outPath)
	return nil
}

func listRecent(ctx context.Context, a *appctx.App, templates bool, out io.Writer) error {
	if a.Index == nil {
		return errors.New("the recent files index is not available")
	}
	list := a.Index.Recent
	if templates {
		list = a.Index.Templates
	}
	files, err := list(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(out, "%s\t%s\n", f.OpenedAt.Format(time.DateTime), f.Path)
	}
	return nil
}
