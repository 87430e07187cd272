package cleaner

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// pollInterval is how often a running child is checked for exit, cancellation and timeout
const pollInterval = 80 * time.Millisecond

// commandOutput holds the drained streams of a finished child
type commandOutput struct {
	Stdout []byte
	Stderr []byte
}

// maxLoggedOutput caps each stream attached to a log entry
const maxLoggedOutput = 4096

// fields returns the trimmed streams as log fields, omitting empty ones
func (o *commandOutput) fields() []zap.Field {
	var fields []zap.Field
	if s := clip(o.Stdout); s != "" {
		fields = append(fields, zap.String("stdout", s))
	}
	if s := clip(o.Stderr); s != "" {
		fields = append(fields, zap.String("stderr", s))
	}
	return fields
}

func clip(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxLoggedOutput {
		s = s[:maxLoggedOutput] + "..."
	}
	return s
}

// runCommand runs args in dir, draining stdout and stderr on their own
// goroutines while the caller's goroutine polls. A cancelled or timed out
// child is killed and reaped before returning.
func runCommand(g guard, args []string, dir string, onTick func(elapsed time.Duration)) (*commandOutput, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	if err := g.check(); err != nil {
		return nil, err
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	prepareCommand(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", args[0], err)
	}

	var outBuf, errBuf bytes.Buffer
	var drain sync.WaitGroup
	drain.Add(2)
	go func() {
		defer drain.Done()
		_, _ = io.Copy(&outBuf, stdout)
	}()
	go func() {
		defer drain.Done()
		_, _ = io.Copy(&errBuf, stderr)
	}()

	// Wait must only run once both pipes are drained
	done := make(chan error, 1)
	go func() {
		drain.Wait()
		done <- cmd.Wait()
	}()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	abort := func(reason error) (*commandOutput, error) {
		_ = killCommand(cmd)
		<-done
		return nil, reason
	}

	for {
		select {
		case err := <-done:
			out := &commandOutput{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
			if err != nil {
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					msg := strings.TrimSpace(errBuf.String())
					if msg == "" {
						msg = exitErr.Error()
					}
					return out, fmt.Errorf("%s failed: %s", strings.Join(args, " "), msg)
				}
				return out, fmt.Errorf("failed to wait for %s: %w", args[0], err)
			}
			return out, nil

		case <-g.ctx.Done():
			return abort(ErrCancelled)

		case <-ticker.C:
			if g.timedOut() {
				return abort(&TimeoutError{Timeout: g.timeout})
			}
			if onTick != nil {
				onTick(g.elapsed())
			}
		}
	}
}
