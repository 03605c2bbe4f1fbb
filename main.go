package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mcncl/jsonlens/internal/config"
	"github.com/mcncl/jsonlens/internal/discovery"
	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/fieldpath"
	"github.com/mcncl/jsonlens/internal/formatter"
	"github.com/mcncl/jsonlens/internal/generator"
	"github.com/mcncl/jsonlens/internal/models"
	"github.com/mcncl/jsonlens/internal/parser"
	"github.com/mcncl/jsonlens/internal/server"
	"github.com/mcncl/jsonlens/internal/session"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config  string           `help:"Path to config file. Defaults to .jsonlens.yml in the current directory or a parent." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Generate GenerateCmd `cmd:"" help:"Render a static viewer page for every test case."`
	Serve    ServeCmd    `cmd:"" help:"Serve test cases with live, server-side sessions."`
	Align    AlignCmd    `cmd:"" help:"Print the filtered and aligned before/after pair of two documents."`
}

// Context holds the runtime context
type Context struct {
	ConfigPath string
	Debug      bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// setup loads the configuration with o applied and builds the logger.
func (c *Context) setup(o config.Overrides) (*config.Config, *zap.Logger, error) {
	path := c.ConfigPath
	if path == "" {
		path = config.FindConfigFile()
	}
	o.Debug = c.Debug
	cfg, err := config.LoadConfigWithCLI(path, o)
	if err != nil {
		return nil, nil, errors.NewConfigError("failed to load configuration", err)
	}

	logger, err := newLogger(cfg.Dev)
	if err != nil {
		return nil, nil, err
	}
	if path != "" {
		logger.Debug("Loaded config", zap.String("path", path))
	}
	return cfg, logger, nil
}

// newLogger builds the production logger. Debug lowers the level to Debug;
// Verbose does the same and also turns off sampling and adds stack traces
// to warnings.
func newLogger(dev config.DevConfig) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev.Debug || dev.Verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if dev.Verbose {
		cfg.Sampling = nil
		cfg.Development = true
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// GenerateCmd writes one page per test case.
type GenerateCmd struct {
	Dir      string `help:"Directory holding the test cases." short:"D" type:"path"`
	Preset   string `help:"Preset to apply. Defaults to the configured default preset." short:"p"`
	Fields   string `help:"Comma-separated field paths to load. Takes precedence over --preset." short:"f"`
	Out      string `help:"Directory the pages are written to." short:"o" type:"path"`
	NoMinify bool   `help:"Write pages without minifying them."`
}

// Run executes the generate command
func (g *GenerateCmd) Run(ctx *Context) error {
	cfg, logger, err := ctx.setup(config.Overrides{
		TestCasesDir: g.Dir,
		OutputDir:    g.Out,
		NoMinify:     g.NoMinify,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cases, err := discovery.Find(cfg.TestCasesDir)
	if err != nil {
		return err
	}

	preset := g.Preset
	if preset == "" {
		preset = cfg.DefaultPreset
	}
	paths, err := session.ResolveFilter(cfg.Presets, preset, g.Fields)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return errors.NewOutputError(fmt.Sprintf("failed to create output directory '%s'", cfg.Output.Dir), err)
	}

	gen := generator.NewGenerator()
	fmtr := formatter.NewFormatter(cfg.Output.Minify)
	for _, tc := range cases {
		s := session.New(tc.Name, tc.Documents, logger)
		s.ApplyFilter(paths)

		page, err := gen.GeneratePage(s, generator.Options{
			Title:        tc.Name,
			Presets:      cfg.Presets,
			ActivePreset: preset,
			ManualFilter: g.Fields,
		})
		if err != nil {
			return err
		}
		page, err = fmtr.Format(page)
		if err != nil {
			return errors.NewRenderError(fmt.Sprintf("failed to format page for '%s'", tc.Name), err)
		}

		file := filepath.Join(cfg.Output.Dir, cfg.OutputFileName(tc.Name))
		if err := os.WriteFile(file, []byte(page), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", file), err)
		}
		logger.Info("Generated page", zap.String("case", tc.Name), zap.String("file", file))
		_, _ = fmt.Fprintf(ctx.Stderr, "Generated viewer written to %s\n", file)
	}
	return nil
}

// ServeCmd serves the test cases over HTTP.
type ServeCmd struct {
	Dir  string `help:"Directory holding the test cases." short:"D" type:"path"`
	Addr string `help:"Address to listen on." short:"a"`
}

// Run executes the serve command
func (c *ServeCmd) Run(ctx *Context) error {
	cfg, logger, err := ctx.setup(config.Overrides{TestCasesDir: c.Dir, Addr: c.Addr})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cases, err := discovery.Find(cfg.TestCasesDir)
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(cfg, cases, logger).ListenAndServe(sigCtx)
}

// AlignCmd prints the aligned pair of two documents.
type AlignCmd struct {
	Before string `help:"Path to the before document." required:"" type:"path"`
	After  string `help:"Path to the after document." required:"" type:"path"`
	Fields string `help:"Comma-separated field paths to keep before aligning." short:"f"`
}

// Run executes the align command
func (a *AlignCmd) Run(ctx *Context) error {
	logger, err := newLogger(config.DevConfig{Debug: ctx.Debug})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	before, err := parser.ParseFile(a.Before)
	if err != nil {
		return err
	}
	after, err := parser.ParseFile(a.After)
	if err != nil {
		return err
	}

	s := session.New("align", session.Documents{
		Request: models.NewObject(),
		Before:  before,
		After:   after,
	}, logger)
	res := s.ApplyFilter(fieldpath.ParseList(a.Fields))

	out := models.NewObject()
	out.Set("before", res.Before)
	out.Set("after", res.After)
	data, err := parser.EncodeIndent(out, "  ")
	if err != nil {
		return errors.NewOutputError("failed to encode aligned documents", err)
	}
	if _, err := fmt.Fprintln(ctx.Stdout, string(data)); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		// Use our custom error handling to provide user-friendly error messages
		_, _ = fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		_, _ = fmt.Fprintf(os.Stderr, "\nFor help, run: jsonlens --help\n")
		os.Exit(1)
	}
}

// run parses args and executes the selected command
func run(args []string, stdout, stderr io.Writer) error {
	var cli CLI
	app, err := kong.New(&cli,
		kong.Name("jsonlens"),
		kong.Description("Filter, align and compare request/before/after JSON test cases"),
		kong.UsageOnError(),
		kong.Vars{"version": "jsonlens version " + Version},
		kong.Writers(stdout, stderr),
	)
	if err != nil {
		return err
	}

	kctx, err := app.Parse(args)
	if err != nil {
		return errors.NewInputError(err.Error(), err)
	}

	return kctx.Run(&Context{
		ConfigPath: cli.Config,
		Debug:      cli.Debug,
		Stdout:     stdout,
		Stderr:     stderr,
	})
}
