package cmd

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wharflab/stagewise/internal/advisor"
	_ "github.com/wharflab/stagewise/internal/advisor/all"
	"github.com/wharflab/stagewise/internal/analyzer"
	"github.com/wharflab/stagewise/internal/config"
	"github.com/wharflab/stagewise/internal/reporter"
	"github.com/wharflab/stagewise/internal/sizing"
)

// Exit codes
const (
	ExitSuccess     = 0 // Analysis completed (with or without suggestions)
	ExitConfigError = 2 // Structural, parse, or config error
	ExitNoFiles     = 3 // No build description found
)

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze build file(s) and suggest image size optimizations",
		ArgsUsage: "[DOCKERFILE...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: auto-discover)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown",
				Sources: cli.EnvVars("STAGEWISE_OUTPUT_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output path: stdout, stderr, or file path",
				Sources: cli.EnvVars("STAGEWISE_OUTPUT_PATH"),
			},
			&cli.BoolFlag{
				Name:    "no-color",
				Usage:   "Disable colored output",
				Sources: cli.EnvVars("NO_COLOR"),
			},
			&cli.BoolFlag{
				Name:  "hide-source",
				Usage: "Hide source line snippets in text output",
			},
			&cli.BoolFlag{
				Name:    "offline",
				Usage:   "Skip registry lookups; size from the built-in table and defaults",
				Sources: cli.EnvVars("STAGEWISE_OFFLINE"),
			},
			&cli.StringFlag{
				Name:    "registry-timeout",
				Usage:   "Wall-clock budget for registry lookups (e.g., 20s)",
				Sources: cli.EnvVars("STAGEWISE_SIZING_TIMEOUT"),
			},
			&cli.Int64Flag{
				Name:    "manifest-hint",
				Usage:   "Dependency manifest size in bytes, scales install estimates",
				Sources: cli.EnvVars("STAGEWISE_SIZING_MANIFEST_HINT_BYTES"),
			},
			&cli.StringSliceFlag{
				Name:    "ignore",
				Usage:   "Suggestion category to drop (can be repeated)",
				Sources: cli.EnvVars("STAGEWISE_ADVISOR_IGNORE"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Action: runAnalyze,
	}
}

// runAnalyze is the action handler for the analyze command.
func runAnalyze(ctx stdcontext.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetOutput(os.Stderr)

	inputs := cmd.Args().Slice()
	if len(inputs) == 0 {
		inputs = []string{"Dockerfile"}
	}

	cfg, err := loadConfig(cmd, inputs[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	applyFlagOverrides(cmd, cfg)

	timeout, err := cfg.RegistryTimeout()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	if timeout > 0 {
		var cancel stdcontext.CancelFunc
		ctx, cancel = stdcontext.WithTimeout(ctx, timeout)
		defer cancel()
	}

	lookup := buildLookup(cfg)

	var (
		suggestions []advisor.Suggestion
		sources     = make(map[string][]byte, len(inputs))
		metadata    = reporter.Metadata{}
	)
	for _, path := range inputs {
		result, err := analyzer.Analyze(ctx, analyzer.Input{
			FilePath: path,
			Config:   cfg,
			Lookup:   lookup,
		})
		if err != nil {
			return exitForAnalysisError(path, err)
		}

		suggestions = append(suggestions, result.Suggestions...)
		sources[path] = result.Source
		metadata.FilesAnalyzed++
		metadata.StagesAnalyzed += result.Stats.Stages
		metadata.LayersEstimated += result.Stats.LayersEstimated
		metadata.LowConfidenceLayers += result.Stats.LowConfidenceLayers
	}
	advisor.Sort(suggestions)

	if err := report(cfg, suggestions, sources, metadata); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.Exit("", ExitConfigError)
	}
	return nil
}

// loadConfig loads configuration from an explicit path or by discovery
// relative to the first analyzed file.
func loadConfig(cmd *cli.Command, firstInput string) (*config.Config, error) {
	if path := cmd.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	target := firstInput
	if target == "-" {
		target = "."
	}
	return config.Load(target)
}

// applyFlagOverrides layers CLI flags on top of the loaded configuration.
func applyFlagOverrides(cmd *cli.Command, cfg *config.Config) {
	if cmd.IsSet("format") {
		cfg.Output.Format = cmd.String("format")
	}
	if cmd.IsSet("output") {
		cfg.Output.Path = cmd.String("output")
	}
	if cmd.Bool("no-color") {
		cfg.Output.Color = "never"
	}
	if cmd.Bool("hide-source") {
		cfg.Output.ShowSource = false
	}
	if cmd.Bool("offline") {
		cfg.Sizing.Registry = "off"
	}
	if cmd.IsSet("registry-timeout") {
		cfg.Sizing.Timeout = cmd.String("registry-timeout")
	}
	if cmd.IsSet("manifest-hint") {
		cfg.Sizing.ManifestHintBytes = cmd.Int64("manifest-hint")
	}
	if cmd.IsSet("ignore") {
		cfg.Advisor.Ignore = cmd.StringSlice("ignore")
	}
}

// buildLookup assembles the size lookup chain from configuration: memoized
// registry lookups when enabled, with the curated static table as fallback.
func buildLookup(cfg *config.Config) sizing.Lookup {
	static := sizing.NewStaticLookup()
	if cfg.Sizing.Registry == "off" {
		return static
	}

	remote := sizing.NewRemoteLookup(sizing.WithMaxTries(cfg.Sizing.MaxTries))
	cached := sizing.NewCachedLookup(remote, cfg.Sizing.CacheEntries)
	return sizing.Chain(cached, static)
}

// exitForAnalysisError maps an analysis failure to an exit code: a missing
// input file is ExitNoFiles, everything else (structural defects, config
// problems) is ExitConfigError.
func exitForAnalysisError(path string, err error) error {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", path, err)

	if errors.Is(err, fs.ErrNotExist) {
		return cli.Exit("", ExitNoFiles)
	}
	return cli.Exit("", ExitConfigError)
}

// report renders the combined suggestion list with the configured format.
func report(cfg *config.Config, suggestions []advisor.Suggestion, sources map[string][]byte, metadata reporter.Metadata) error {
	format, err := reporter.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	writer, closeWriter, err := reporter.GetWriter(cfg.Output.Path)
	if err != nil {
		return err
	}
	defer func() { _ = closeWriter() }()

	var color *bool
	switch cfg.Output.Color {
	case "always":
		v := true
		color = &v
	case "never":
		v := false
		color = &v
	}

	r, err := reporter.New(reporter.Options{
		Format:     format,
		Writer:     writer,
		Color:      color,
		ShowSource: cfg.Output.ShowSource,
	})
	if err != nil {
		return err
	}
	return r.Report(suggestions, sources, metadata)
}
