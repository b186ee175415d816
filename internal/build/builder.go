package build

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cotton-web/cotton/internal/config"
	"github.com/cotton-web/cotton/internal/errors"
)

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// Binary is the path to the compiled binary.
	Binary string

	// Public is the path to the copied static assets.
	Public string

	// Manifest maps original asset names to their output names.
	Manifest map[string]string

	// Routes is the number of routes snapshotted.
	Routes int
}

// Options configures the builder.
type Options struct {
	// Target is the Go build target (e.g. "linux/amd64"). Empty
	// builds for the host.
	Target string

	// SkipBinary skips compiling the project binary. Used when only
	// assets changed.
	SkipBinary bool

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder performs production builds.
type Builder struct {
	config  *config.Config
	options Options
}

// New creates a builder.
func New(cfg *config.Config, options Options) *Builder {
	return &Builder{config: cfg, options: options}
}

// Build performs a production build into the configured output
// directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{Manifest: make(map[string]string)}

	outputDir := b.outputPath()
	publicDir := filepath.Join(outputDir, "public")

	b.progress("Cleaning output directory...")
	if err := os.RemoveAll(outputDir); err != nil {
		return nil, errors.New("C202").Wrap(err)
	}
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		return nil, errors.New("C202").Wrap(err)
	}

	if !b.options.SkipBinary {
		b.progress("Compiling...")
		binaryPath := filepath.Join(outputDir, "server")
		if err := b.buildGo(ctx, binaryPath); err != nil {
			return nil, err
		}
		result.Binary = binaryPath
	}

	b.progress("Copying static assets...")
	if err := b.copyAssets(publicDir, result.Manifest); err != nil {
		return nil, err
	}

	b.progress("Snapshotting routes...")
	n, err := b.writeRoutes(outputDir)
	if err != nil {
		return nil, err
	}
	result.Routes = n

	b.progress("Writing manifest...")
	if err := writeJSON(filepath.Join(outputDir, "manifest.json"), result.Manifest); err != nil {
		return nil, errors.New("C202").Wrap(err)
	}

	result.Duration = time.Since(start)
	result.Public = publicDir
	return result, nil
}

func (b *Builder) outputPath() string {
	out := b.config.Build.Output
	if !filepath.IsAbs(out) {
		out = filepath.Join(b.config.Dir(), out)
	}
	return out
}

func (b *Builder) staticPath() string {
	static := b.config.Paths.Static
	if !filepath.IsAbs(static) {
		static = filepath.Join(b.config.Dir(), static)
	}
	return static
}

// buildGo compiles the project binary.
func (b *Builder) buildGo(ctx context.Context, output string) error {
	args := []string{
		"build",
		"-o", output,
		"-ldflags", "-s -w",
		"-trimpath",
		".",
	}

	cmd := exec.CommandContext(ctx, "go", args...)
	cmd.Dir = b.config.Dir()

	env := append(os.Environ(), "CGO_ENABLED=0")
	if b.options.Target != "" {
		if parts := strings.Split(b.options.Target, "/"); len(parts) == 2 {
			env = append(env, "GOOS="+parts[0], "GOARCH="+parts[1])
		}
	}
	cmd.Env = env

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.New("C201").WithDetail(stderr.String()).Wrap(err)
	}
	return nil
}

// copyAssets copies the static directory into the output, optionally
// fingerprinting CSS and JS files with a content hash.
func (b *Builder) copyAssets(publicDir string, manifest map[string]string) error {
	staticDir := b.staticPath()
	if _, err := os.Stat(staticDir); os.IsNotExist(err) {
		return nil
	}

	return filepath.Walk(staticDir, func(src string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		rel, err := filepath.Rel(staticDir, src)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		outName := rel
		if b.config.Build.Fingerprint && isFingerprintable(rel) {
			hash, err := hashFile(src)
			if err != nil {
				return errors.New("C202").Wrap(err)
			}
			ext := filepath.Ext(rel)
			outName = fmt.Sprintf("%s.%s%s", strings.TrimSuffix(rel, ext), hash[:8], ext)
		}

		dst := filepath.Join(publicDir, filepath.FromSlash(outName))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return errors.New("C202").Wrap(err)
		}
		if err := copyFile(src, dst); err != nil {
			return errors.New("C202").Wrap(err)
		}

		manifest[rel] = outName
		return nil
	})
}

// writeRoutes snapshots the ordered route table next to the binary so
// the production server matches exactly what was built.
func (b *Builder) writeRoutes(outputDir string) (int, error) {
	if err := writeJSON(filepath.Join(outputDir, "routes.json"), b.config.Routes); err != nil {
		return 0, errors.New("C202").Wrap(err)
	}
	return len(b.config.Routes), nil
}

func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

// isFingerprintable reports whether an asset gets a content hash in
// its name. Only CSS and JS: HTML and images keep stable names.
func isFingerprintable(rel string) bool {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".css", ".js":
		return true
	}
	return false
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
