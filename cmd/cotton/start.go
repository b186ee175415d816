package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cotton-web/cotton/internal/config"
	"github.com/cotton-web/cotton/internal/errors"
)

func startCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the production build",
		Long: `Run the compiled server from the build output directory.

The server binary is produced by 'cotton build'. Host and port come
from cotton.json, overridable with flags or COTTON_HOST/COTTON_PORT.

Examples:
  cotton start
  cotton start --port=8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(port, host)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from cotton.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from cotton.json)")

	return cmd
}

func runStart(port int, host string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	if port > 0 {
		cfg.Port = port
	}
	if host != "" {
		cfg.Host = host
	}

	binary := filepath.Join(cfg.Build.Output, "server")
	if _, err := os.Stat(binary); os.IsNotExist(err) {
		return errors.Newf(errors.CategoryCLI, "no build output at %s", binary).
			WithSuggestion("Run 'cotton build' first.")
	}

	info("Starting %s on %s:%d", binary, cfg.Host, cfg.Port)

	child := exec.Command(binary)
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	child.Stdin = os.Stdin
	child.Env = append(os.Environ(),
		"COTTON_HOST="+cfg.Host,
		"COTTON_PORT="+strconv.Itoa(cfg.Port),
	)

	if err := child.Run(); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
