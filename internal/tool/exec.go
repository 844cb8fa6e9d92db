package tool

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Line buffer sizes; yt-dlp can emit long JSON lines
const (
	scannerInitialBuffer = 64 * 1024
	scannerMaxBuffer     = 1024 * 1024
	lineChannelBuffer    = 64
)

// ExecRunner is the Runner backed by os/exec.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates a runner that spawns real child processes.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Spawn starts the process and begins draining its output streams.
func (r *ExecRunner) Spawn(argv []string) (Handle, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty argument vector")
	}

	cmd := exec.Command(argv[0], argv[1:]...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, argv[0], err)
		}
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}

	r.logger.Debug("spawned process",
		zap.String("binary", argv[0]),
		zap.Int("pid", cmd.Process.Pid),
	)

	h := &processHandle{
		cmd:    cmd,
		lines:  make(chan Line, lineChannelBuffer),
		exited: make(chan struct{}),
		logger: r.logger,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go h.readStream(StreamStdout, stdout, &wg)
	go h.readStream(StreamStderr, stderr, &wg)

	go func() {
		wg.Wait()
		close(h.lines)

		err := cmd.Wait()
		status := ExitStatus{Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status.Code = exitErr.ExitCode()
		} else if err != nil {
			status.Code = -1
		}
		h.status = status
		close(h.exited)
	}()

	return h, nil
}

// ProbeDuration returns the media duration in seconds using ffprobe.
func (r *ExecRunner) ProbeDuration(path string) (float64, error) {
	cmd := exec.Command(FFprobeCommand,
		"-v", FFprobeLogLevel,
		"-show_entries", FFprobeShowEntries,
		"-of", FFprobeOutputFormat,
		path,
	)
	output, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
			return 0, fmt.Errorf("%w: %s: %v", ErrToolUnavailable, FFprobeCommand, err)
		}
		return 0, fmt.Errorf("run ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}
	return duration, nil
}

type processHandle struct {
	cmd      *exec.Cmd
	lines    chan Line
	status   ExitStatus
	exited   chan struct{}
	termOnce sync.Once
	logger   *zap.Logger
}

func (h *processHandle) Lines() <-chan Line {
	return h.lines
}

func (h *processHandle) Wait() ExitStatus {
	<-h.exited
	return h.status
}

func (h *processHandle) Terminate(grace time.Duration) {
	h.termOnce.Do(func() {
		go func() {
			_ = h.cmd.Process.Signal(os.Interrupt)
			select {
			case <-h.exited:
			case <-time.After(grace):
				_ = h.cmd.Process.Kill()
			}
		}()
	})
}

func (h *processHandle) readStream(stream Stream, r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, scannerInitialBuffer)
	scanner.Buffer(buf, scannerMaxBuffer)
	scanner.Split(splitByNewlineOrCR)
	for scanner.Scan() {
		h.lines <- Line{Stream: stream, Text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		// An over-long line stops the scanner mid-stream. The pipe must
		// still be drained to EOF or the child blocks writing to it and
		// never exits.
		h.logger.Warn("output stream truncated",
			zap.String("stream", string(stream)),
			zap.Error(err),
		)
		_, _ = io.Copy(io.Discard, r)
	}
}

// splitByNewlineOrCR treats both \n and \r as line terminators; yt-dlp
// rewrites its progress line with bare carriage returns.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}
