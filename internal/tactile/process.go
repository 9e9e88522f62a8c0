package tactile

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"ringjudge/internal/logging"
)

// maxLineBytes bounds a single protocol line from the candidate.
const maxLineBytes = 1 << 20

// Process is a running candidate attached through OS pipes. Two listener
// goroutines drain stdout into a bounded line queue and stderr into a capped
// diagnostic buffer.
type Process struct {
	cmd     *exec.Cmd
	command Command
	cfg     Teardown

	sendMu sync.Mutex
	stdin  *os.File

	stdout *os.File
	stderr *os.File

	lines  chan string
	quit   chan struct{}
	exited chan struct{}
	joined chan struct{}

	group   errgroup.Group
	joinErr error
	waitErr error
	usage   *ResourceUsage

	diag *diagnostics

	closeOnce sync.Once
}

// Spawn starts the candidate described by cmd. The caller owns the returned
// process and must Close it.
func Spawn(cmd Command, cfg Teardown) (*Process, error) {
	if cmd.Binary == "" {
		return nil, fmt.Errorf("binary is required")
	}
	cfg = cfg.withDefaults()

	logging.Tactile("Spawning candidate: %s", cmd.CommandString())

	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	pipe := func() (*os.File, *os.File, error) {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, err
		}
		opened = append(opened, r, w)
		return r, w, nil
	}

	inR, inW, err := pipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	outR, outW, err := pipe()
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	errR, errW, err := pipe()
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	execCmd := exec.Command(cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = append(os.Environ(), cmd.Environment...)
	execCmd.Stdin = inR
	execCmd.Stdout = outW
	execCmd.Stderr = errW
	setupProcessGroup(execCmd)

	if err := execCmd.Start(); err != nil {
		closeAll()
		logging.TactileError("Failed to start %s: %v", cmd.Binary, err)
		return nil, fmt.Errorf("start %s: %w", cmd.Binary, err)
	}

	// The child holds its own copies of these ends.
	inR.Close()
	outW.Close()
	errW.Close()

	p := &Process{
		cmd:     execCmd,
		command: cmd,
		cfg:     cfg,
		stdin:   inW,
		stdout:  outR,
		stderr:  errR,
		lines:   make(chan string, cfg.QueueSize),
		quit:    make(chan struct{}),
		exited:  make(chan struct{}),
		joined:  make(chan struct{}),
		diag:    newDiagnostics(cfg.MaxDiagnosticBytes),
	}

	go p.wait()
	p.group.Go(p.pumpOutput)
	p.group.Go(p.pumpDiagnostics)
	go func() {
		p.joinErr = p.group.Wait()
		close(p.joined)
	}()

	logging.TactileDebug("Candidate started: pid=%d req=%s", execCmd.Process.Pid, cmd.RequestID)
	return p, nil
}

func (p *Process) wait() {
	p.waitErr = p.cmd.Wait()
	p.usage = getProcessResourceUsage(p.cmd)
	close(p.exited)
}

func (p *Process) pumpOutput() error {
	defer close(p.lines)

	scanner := bufio.NewScanner(p.stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		select {
		case p.lines <- line:
		case <-p.quit:
			return nil
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("read stdout: %w", err)
	}
	return nil
}

func (p *Process) pumpDiagnostics() error {
	if _, err := io.Copy(p.diag, p.stderr); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("read stderr: %w", err)
	}
	return nil
}

// Pid returns the candidate's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Send implements Channel.
func (p *Process) Send(line string) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()

	if p.stdin == nil {
		return ErrClosed
	}
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		return fmt.Errorf("write stdin: %w", err)
	}
	return nil
}

// Receive implements Channel.
func (p *Process) Receive(ctx context.Context, timeout time.Duration) (string, Status) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	lines := p.lines
	var exited <-chan struct{}
	for {
		select {
		case line, ok := <-lines:
			if ok {
				return line, StatusLine
			}
			// Output drained; only an actual exit counts as closed.
			lines = nil
			exited = p.exited
		case <-exited:
			return "", StatusClosed
		case <-timer.C:
			return "", StatusTimeout
		case <-ctx.Done():
			return "", StatusCanceled
		}
	}
}

// Kill implements Channel.
func (p *Process) Kill() {
	if p.Exited() {
		return
	}
	if err := killProcessGroup(p.cmd); err != nil {
		logging.TactileWarn("Kill pid %d failed: %v", p.Pid(), err)
		return
	}
	logging.TactileDebug("Killed pid %d", p.Pid())
}

// Exited implements Channel.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Diagnostics implements Channel.
func (p *Process) Diagnostics() string {
	return p.diag.String()
}

// ExitCode returns the exit code once the process has exited, or -1.
func (p *Process) ExitCode() int {
	if !p.Exited() || p.cmd.ProcessState == nil {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}

// Usage returns resource usage of the exited process, or nil.
func (p *Process) Usage() *ResourceUsage {
	if !p.Exited() {
		return nil
	}
	return p.usage
}

// Close implements Channel. It closes stdin, allows a short grace period for a
// voluntary exit, kills the process group otherwise, joins both listeners with a
// bounded wait and closes the read ends of the pipes.
func (p *Process) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.teardown()
	})
	return err
}

func (p *Process) teardown() error {
	timer := logging.StartTimer(logging.CategoryTactile, "Candidate teardown")
	defer timer.Stop()

	p.sendMu.Lock()
	if p.stdin != nil {
		p.stdin.Close()
		p.stdin = nil
	}
	p.sendMu.Unlock()

	if !waitFor(p.exited, p.cfg.GracePeriod) {
		p.Kill()
		if !waitFor(p.exited, p.cfg.KillWait) {
			logging.TactileError("pid %d still running %s after kill", p.Pid(), p.cfg.KillWait)
		}
	}

	close(p.quit)
	joined := waitFor(p.joined, p.cfg.JoinWait)
	if !joined {
		logging.TactileWarn("Listeners for pid %d still running after %s", p.Pid(), p.cfg.JoinWait)
	}

	p.stdout.Close()
	p.stderr.Close()

	if !joined && !waitFor(p.joined, p.cfg.JoinWait) {
		return fmt.Errorf("listeners for pid %d did not stop", p.Pid())
	}

	if p.Exited() {
		logging.TactileDebug("pid %d exited: code=%d wait=%v", p.Pid(), p.ExitCode(), p.waitErr)
	}
	if p.joinErr != nil {
		logging.TactileWarn("Listener error for pid %d: %v", p.Pid(), p.joinErr)
	}
	return nil
}

func waitFor(ch <-chan struct{}, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}

// diagnostics is a concurrency-safe capped buffer for stderr.
type diagnostics struct {
	mu  sync.Mutex
	buf bytes.Buffer
	lw  *limitedWriter
}

func newDiagnostics(max int64) *diagnostics {
	d := &diagnostics{}
	d.lw = &limitedWriter{w: &d.buf, max: max}
	return d
}

func (d *diagnostics) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lw.Write(p)
}

func (d *diagnostics) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.buf.String()
	if d.lw.truncated {
		s += fmt.Sprintf("\n[truncated: %d bytes discarded]", d.lw.discarded)
	}
	return s
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		lw.truncated = true
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err // full length avoids short-write errors in io.Copy
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}

var _ Channel = (*Process)(nil)
