package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wharflab/stagewise/internal/version"
)

// NewApp creates the CLI application
func NewApp() *cli.Command {
	return &cli.Command{
		Name:    "stagewise",
		Usage:   "Analyze container build files for image size optimizations",
		Version: version.Version(),
		Description: `stagewise parses Dockerfiles and Containerfiles, models the stage graph,
estimates layer sizes, and suggests ways to shrink the shipped image.

Examples:
  stagewise analyze Dockerfile
  stagewise analyze --format json services/*/Dockerfile
  cat Dockerfile | stagewise analyze -`,
		Commands: []*cli.Command{
			analyzeCommand(),
			versionCommand(),
		},
	}
}

// Execute runs the CLI application
func Execute() error {
	return NewApp().Run(context.Background(), os.Args)
}
