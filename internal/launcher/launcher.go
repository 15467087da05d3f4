// Package launcher runs the helper scripts that accompany a session.
package launcher

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
)

// Launcher starts scripts with a fixed interpreter. Helpers share the
// terminal so they can prompt the user.
type Launcher struct {
	Interpreter string
	Stdin       io.Reader
	Stdout      io.Writer
	Stderr      io.Writer
}

// New returns a launcher wired to the process's terminal.
func New(interpreter string) *Launcher {
	return &Launcher{
		Interpreter: interpreter,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Run executes script and waits for it. An empty script is a no-op.
func (l *Launcher) Run(ctx context.Context, script string) error {
	if script == "" {
		return nil
	}
	p, err := l.Start(ctx, script)
	if err != nil {
		return err
	}
	return p.Wait()
}

// Start launches script in the background. An empty script yields a Process
// that is already finished.
func (l *Launcher) Start(ctx context.Context, script string) (*Process, error) {
	p := &Process{done: make(chan struct{})}
	if script == "" {
		close(p.done)
		return p, nil
	}
	if l.Interpreter == "" {
		return nil, fmt.Errorf("launch %s: no interpreter configured", script)
	}

	cmd := exec.CommandContext(ctx, l.Interpreter, script)
	cmd.Stdin = l.Stdin
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", script, err)
	}
	log.Printf("launched helper %s (pid %d)", script, cmd.Process.Pid)

	p.script = script
	go func() {
		p.err = cmd.Wait()
		if p.err != nil {
			log.Printf("helper %s exited: %v", script, p.err)
		}
		close(p.done)
	}()
	return p, nil
}

// Detach launches script in the background like Start, but cancelling ctx
// does not kill it. Used for helpers that must see the session's final
// markers before exiting on their own.
func (l *Launcher) Detach(ctx context.Context, script string) (*Process, error) {
	return l.Start(context.WithoutCancel(ctx), script)
}

// Process is a running helper.
type Process struct {
	script string
	done   chan struct{}
	err    error
}

// Wait blocks until the helper exits and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Done is closed when the helper exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}
