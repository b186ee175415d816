package dev

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cotton-web/cotton/internal/errors"
)

// CompilerConfig configures the project compiler.
type CompilerConfig struct {
	// ProjectPath is the root directory of the project.
	ProjectPath string

	// BinaryPath is where the compiled binary is written.
	// Default: <project>/.cotton/server
	BinaryPath string

	// Env are additional environment variables for the child process.
	Env []string
}

// BuildResult is the outcome of one build.
type BuildResult struct {
	Success  bool
	Duration time.Duration
	Output   string
	Error    error
}

// Compiler builds the project binary and manages the running child
// process.
type Compiler struct {
	config CompilerConfig

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // closed once the child has been reaped
}

// NewCompiler creates a compiler for a project directory.
func NewCompiler(config CompilerConfig) *Compiler {
	if config.BinaryPath == "" {
		config.BinaryPath = filepath.Join(config.ProjectPath, ".cotton", "server")
	}
	return &Compiler{config: config}
}

// Build compiles the project with go build.
func (c *Compiler) Build(ctx context.Context) BuildResult {
	start := time.Now()

	if err := os.MkdirAll(filepath.Dir(c.config.BinaryPath), 0o755); err != nil {
		return BuildResult{
			Duration: time.Since(start),
			Error:    errors.New("C301").Wrap(err),
		}
	}

	cmd := exec.CommandContext(ctx, "go", "build", "-o", c.config.BinaryPath, ".")
	cmd.Dir = c.config.ProjectPath

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := BuildResult{
		Success:  err == nil,
		Duration: time.Since(start),
		Output:   out.String(),
	}
	if err != nil {
		result.Error = errors.New("C301").WithDetail(out.String())
	}
	return result
}

// Run starts the compiled binary. Any previous child is stopped first.
func (c *Compiler) Run(ctx context.Context, env []string) error {
	c.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()

	cmd := exec.CommandContext(ctx, c.config.BinaryPath)
	cmd.Dir = c.config.ProjectPath
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), append(c.config.Env, env...)...)

	if err := cmd.Start(); err != nil {
		return errors.New("C302").Wrap(err)
	}

	// Reap the child so a crashed process does not linger as a zombie.
	// The channel is the only signal Stop and Running look at; Wait's
	// own state is never read from another goroutine.
	done := make(chan struct{})
	go func() {
		cmd.Wait()
		close(done)
	}()

	c.cmd = cmd
	c.done = done
	return nil
}

// Stop terminates the running child process, giving it a moment to
// exit before killing it.
func (c *Compiler) Stop() {
	c.mu.Lock()
	cmd, done := c.cmd, c.done
	c.cmd, c.done = nil, nil
	c.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}

	_ = cmd.Process.Signal(os.Interrupt)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		<-done
	}
}

// Running reports whether a child process is active.
func (c *Compiler) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}
