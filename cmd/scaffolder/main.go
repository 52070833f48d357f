package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"scaffolder/internal/catalog"
	"scaffolder/internal/config"
	"scaffolder/internal/fetch"
	"scaffolder/internal/generate"
	"scaffolder/internal/logger"
	"scaffolder/internal/mcptools"
	"scaffolder/internal/server"
	"scaffolder/internal/templates"
	"scaffolder/internal/wizard"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Configure where templates are read from",
		usage: "scaffolder init [dir|http|gcs]",
		long: `Create ~/.scaffolder/ and write config.yaml.

Prompts for the settings of the chosen template source (default: the
currently configured one, "dir" on first run):

  dir   a local directory holding src/, configs/, vs/, clion/, ...
  http  a web server serving the same tree
  gcs   a Cloud Storage bucket, optionally under a prefix
`,
		run: runInit,
	},
	{
		name:  "wizard",
		short: "Pick a combination interactively and build the scaffold",
		usage: "scaffolder wizard",
		long: `Walk the four steps (operating system, IDE, compiler, build tool) in the
terminal. Options that conflict with earlier choices are shown dimmed and
cannot be picked. Going back to an earlier step discards every later choice.

Once all steps are chosen, press enter to write the archive to the
configured output directory.
`,
		run: runWizard,
	},
	{
		name:  "generate",
		short: "Build the scaffold for a given combination",
		usage: "scaffolder generate <os> <ide> <compiler> <build-tool> [--extract] [-o <dir>]",
		long: `Build the scaffold archive for one complete combination without prompting.

  --extract   write the unpacked files instead of the zip archive
  -o <dir>    output directory (default: the configured output)

Example:
  scaffolder generate windows vscode mingw cmake -o ./out
`,
		run: runGenerate,
	},
	{
		name:  "steps",
		short: "Print the wizard steps after some choices",
		usage: "scaffolder steps [option-id...] | scaffolder steps --all",
		long: `Print the visible steps as YAML after the given choices, with each option's
disabled flag. With --all, print every legal combination instead.
`,
		run: runSteps,
	},
	{
		name:  "serve",
		short: "Serve the HTTP API for the browser front-end",
		usage: "scaffolder serve [addr]",
		long: `Serve GET /api/steps, GET /api/combinations and POST /api/generate.

The address defaults to server.addr from the config (":8080").
`,
		run: runServe,
	},
	{
		name:  "mcp",
		short: "Serve the scaffold tools over MCP (stdio)",
		usage: "scaffolder mcp",
		long: `Run an MCP server on stdin/stdout exposing scaffold_steps and
scaffold_generate to AI coding agents.
`,
		run: runMCP,
	},
}

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "scaffolder — guided Mini-Lisp project scaffolds\n\n")
	fmt.Fprintf(w, "Usage:\n  scaffolder <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'scaffolder help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "scaffolder: unknown command %q\n\nRun 'scaffolder help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(os.Stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(os.Stdout, args[1])
		} else {
			printUsage(os.Stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'scaffolder help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// shared setup
// ---------------------------------------------------------------------------

// env is what every generating command needs.
type env struct {
	cfg     config.Config
	log     *logger.Logger
	gen     *generate.Generator
	cleanup func()
}

// setup loads the config and opens the template source. The configured
// source is overlaid on the embedded README fragments. logMode overrides
// cfg.Log.Mode when non-empty.
func setup(ctx context.Context, logMode string) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logMode == "" {
		logMode = cfg.Log.Mode
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, err
	}
	src, closeSrc, err := fetch.Open(ctx, cfg.Source.Kind, cfg.Source.Settings)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("template source: %w (run 'scaffolder init' to configure)", err)
	}
	log.Debug("template source opened", "kind", cfg.Source.Kind)

	gen := &generate.Generator{
		Catalog:     catalog.Default(),
		Source:      fetch.Overlay(src, fetch.FS{FS: templates.Readme}),
		Log:         log,
		Concurrency: cfg.Concurrency,
		ArchiveName: cfg.ArchiveName,
	}
	return &env{
		cfg: cfg,
		log: log,
		gen: gen,
		cleanup: func() {
			closeSrc()
			log.Sync()
		},
	}, nil
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: scaffolder init [dir|http|gcs]")
	}
	if _, err := config.Init(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		// A broken file is replaced rather than blocking re-initialization.
		cfg = config.Default()
	}
	kind := cfg.Source.Kind
	if len(args) == 1 {
		kind = args[0]
	}
	provider, err := fetch.Lookup(kind)
	if err != nil {
		return err
	}

	answers, err := promptQuestions(provider.Configure())
	if err != nil {
		return fmt.Errorf("prompt: %w", err)
	}
	settings := make(map[string]string, len(answers))
	for k, v := range answers {
		if v = strings.TrimSpace(v); v != "" {
			settings[k] = v
		}
	}
	cfg.Source = config.Source{Kind: provider.Name(), Settings: settings}

	// Fail now rather than on the first generation.
	_, closeSrc, err := fetch.Open(context.Background(), cfg.Source.Kind, cfg.Source.Settings)
	if err != nil {
		return err
	}
	closeSrc()

	if err := config.Save(cfg); err != nil {
		return err
	}
	path, _ := config.Path()
	fmt.Printf("configured %s template source in %s\n", provider.Name(), path)
	return nil
}

// ---------------------------------------------------------------------------
// wizard
// ---------------------------------------------------------------------------

func runWizard(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: scaffolder wizard")
	}
	// Quitting the program cancels a generation still in flight.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The wizard owns the terminal, so it never logs.
	e, err := setup(ctx, "off")
	if err != nil {
		return err
	}
	defer e.cleanup()

	m := newWizardModel(e.gen.Catalog, wizardRunner(ctx, e.gen, generate.DirDeliverer{Dir: e.cfg.Output}))
	_, err = tea.NewProgram(m).Run()
	cancel()
	return err
}

// wizardRunner returns the generation callback of the wizard model. Every run
// is bound to ctx.
func wizardRunner(ctx context.Context, gen *generate.Generator, d generate.DirDeliverer) func([]string) (string, error) {
	return func(sel []string) (string, error) {
		art, err := gen.Run(ctx, sel, d)
		if err != nil {
			return "", err
		}
		return d.Path(art.Name), nil
	}
}

// ---------------------------------------------------------------------------
// generate
// ---------------------------------------------------------------------------

type generateArgs struct {
	selections []string
	extract    bool
	output     string
}

func parseGenerateArgs(args []string) (generateArgs, error) {
	usage := fmt.Errorf("usage: scaffolder generate <os> <ide> <compiler> <build-tool> [--extract] [-o <dir>]")
	var ga generateArgs
	for i := 0; i < len(args); i++ {
		switch a := args[i]; a {
		case "--extract":
			ga.extract = true
		case "-o", "--output":
			if i+1 >= len(args) {
				return generateArgs{}, usage
			}
			i++
			ga.output = args[i]
		default:
			if strings.HasPrefix(a, "-") {
				return generateArgs{}, fmt.Errorf("unknown flag %q\n%w", a, usage)
			}
			ga.selections = append(ga.selections, a)
		}
	}
	if len(ga.selections) != catalog.Default().Len() {
		return generateArgs{}, usage
	}
	return ga, nil
}

func runGenerate(args []string) error {
	ga, err := parseGenerateArgs(args)
	if err != nil {
		return err
	}
	ctx := context.Background()
	e, err := setup(ctx, "")
	if err != nil {
		return err
	}
	defer e.cleanup()

	out := ga.output
	if out == "" {
		out = e.cfg.Output
	}

	if ga.extract {
		art, err := e.gen.Generate(ctx, ga.selections)
		if err != nil {
			return err
		}
		if err := art.Tree.WriteDir(out); err != nil {
			return fmt.Errorf("%s: %w", generate.EDelivery, err)
		}
		abs, _ := filepath.Abs(out)
		fmt.Printf("wrote %d files to %s\n", len(art.Files), abs)
		return nil
	}

	d := generate.DirDeliverer{Dir: out}
	art, err := e.gen.Run(ctx, ga.selections, d)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d files, %d bytes)\n", d.Path(art.Name), len(art.Files), len(art.Blob))
	return nil
}

// ---------------------------------------------------------------------------
// steps
// ---------------------------------------------------------------------------

type stepOut struct {
	Step     int         `yaml:"step"`
	Title    string      `yaml:"title"`
	Selected string      `yaml:"selected,omitempty"`
	Options  []optionOut `yaml:"options"`
}

type optionOut struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

func runSteps(args []string) error {
	return writeSteps(os.Stdout, args)
}

func writeSteps(w io.Writer, args []string) error {
	cat := catalog.Default()
	var doc any
	if len(args) == 1 && args[0] == "--all" {
		doc = map[string][][]string{"combinations": cat.Combinations()}
	} else {
		s, err := wizard.Replay(cat, args)
		if err != nil {
			return err
		}
		var steps []stepOut
		for _, v := range s.View() {
			so := stepOut{Step: v.Index + 1, Title: v.Title, Selected: v.Selected}
			for _, o := range v.Options {
				so.Options = append(so.Options, optionOut{ID: o.ID, Label: o.Label, Disabled: o.Disabled})
			}
			steps = append(steps, so)
		}
		doc = map[string]any{"complete": s.Complete(), "steps": steps}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// ---------------------------------------------------------------------------
// serve
// ---------------------------------------------------------------------------

func runServe(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("usage: scaffolder serve [addr]")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, "")
	if err != nil {
		return err
	}
	defer e.cleanup()

	addr := e.cfg.Server.Addr
	if len(args) == 1 {
		addr = args[0]
	}
	srv := server.NewServer(server.RouterConfig{
		ScaffoldHandler: server.NewScaffoldHandler(e.gen),
		HealthHandler:   server.NewHealthHandler(),
		AllowedOrigins:  e.cfg.Server.AllowedOrigins,
		Log:             e.log,
	})
	return srv.Run(ctx, addr)
}

// ---------------------------------------------------------------------------
// mcp
// ---------------------------------------------------------------------------

func runMCP(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("usage: scaffolder mcp")
	}
	e, err := setup(context.Background(), "")
	if err != nil {
		return err
	}
	defer e.cleanup()

	return mcpserver.ServeStdio(mcptools.New(version, e.gen, e.cfg.Output))
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
