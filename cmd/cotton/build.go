package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cotton-web/cotton/internal/build"
	"github.com/cotton-web/cotton/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		output string
		target string
		deploy bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build for production",
		Long: `Build the application for production deployment.

This command:
  • Compiles the project binary with optimizations
  • Copies static assets with content-hash fingerprinting
  • Snapshots the route table
  • Writes an asset manifest

With --deploy, the finished output is uploaded to the S3 bucket
configured under build.deploy.

Examples:
  cotton build
  cotton build --output=dist --target=linux/amd64
  cotton build --deploy`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, target, deploy)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from cotton.json)")
	cmd.Flags().StringVar(&target, "target", "", "Build target (e.g. linux/amd64)")
	cmd.Flags().BoolVar(&deploy, "deploy", false, "Upload the build output to S3")

	return cmd
}

func runBuild(output, target string, deploy bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}

	if output != "" {
		cfg.Build.Output = output
	}

	fmt.Println("  Building for production...")
	fmt.Println()

	builder := build.New(cfg, build.Options{
		Target: target,
		OnProgress: func(step string) {
			info(step)
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Build complete in %s", result.Duration)
	info("%d assets, %d routes", len(result.Manifest), result.Routes)
	fmt.Println()
	fmt.Println("  To run:")
	fmt.Printf("    ./%s/server\n", cfg.Build.Output)
	fmt.Println()

	if !deploy {
		return nil
	}

	deployer, err := build.NewDeployer(ctx, build.DeployConfig{
		Bucket: cfg.Build.Deploy.Bucket,
		Prefix: cfg.Build.Deploy.Prefix,
		Region: cfg.Build.Deploy.Region,
		OnUpload: func(key string) {
			info("uploaded %s", key)
		},
	})
	if err != nil {
		return err
	}

	outputDir := cfg.Build.Output
	n, err := deployer.Deploy(ctx, outputDir)
	if err != nil {
		return err
	}

	fmt.Println()
	success("Deployed %d objects to s3://%s", n, cfg.Build.Deploy.Bucket)
	return nil
}
