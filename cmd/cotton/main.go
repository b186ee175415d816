package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cotton-web/cotton/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌┬┐┌┬┐┌─┐┌┐┌
  │  │ │ │  │ │ ││││
  └─┘└─┘ ┴  ┴ └─┘┘└┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "cotton",
		Short: "The full-stack web framework for Go",
		Long: `Cotton is a full-stack web framework for Go.

Declare routes in cotton.json, write pages and loaders as Go
functions, and Cotton handles the rest:

  • Pattern-matched routing with path parameters
  • Server-rendered pages with loader data hydration
  • API endpoints with middleware
  • Hot reload development server
  • Production builds with asset fingerprinting and S3 deploys`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		devCmd(),
		buildCmd(),
		startCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var ce *errors.CottonError
		if stderrors.As(err, &ce) {
			fmt.Fprint(os.Stderr, ce.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the Cotton ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
