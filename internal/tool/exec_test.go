package tool

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func scanAll(t *testing.T, input string) []string {
	t.Helper()
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Split(splitByNewlineOrCR)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanner error: %v", err)
	}
	return lines
}

func TestSplitByNewlineOrCR(t *testing.T) {
	lines := scanAll(t, "first\nsecond\rthird\r\nfourth")
	want := []string{"first", "second", "third", "fourth"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %v", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSplitHandlesProgressRewrites(t *testing.T) {
	// yt-dlp rewrites its progress line with bare carriage returns.
	input := "[download]  10.0% of 5MiB\r[download]  55.0% of 5MiB\r[download] 100.0% of 5MiB\n"
	lines := scanAll(t, input)
	if len(lines) != 3 {
		t.Fatalf("expected 3 rewrites, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[2], "100.0%") {
		t.Errorf("unexpected final line %q", lines[2])
	}
}

func TestReadStreamDrainsAfterOverlongLine(t *testing.T) {
	// One line over the scanner limit, then more output the child would
	// still be writing. The reader must consume everything to EOF so the
	// pipe never fills up, and the stream must end instead of hanging.
	input := strings.Repeat("a", scannerMaxBuffer+1) + "\n" +
		strings.Repeat("trailing output\n", 1000)
	reader := strings.NewReader(input)

	h := &processHandle{
		lines:  make(chan Line, lineChannelBuffer),
		logger: zap.NewNop(),
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go h.readStream(StreamStdout, reader, &wg)

	consumed := make(chan struct{})
	go func() {
		for range h.lines {
		}
		close(consumed)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("readStream did not finish after an over-long line")
	}
	close(h.lines)
	<-consumed

	if reader.Len() != 0 {
		t.Errorf("expected stream drained to EOF, %d bytes left", reader.Len())
	}
}

func TestProbeDurationMissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := NewExecRunner(nil).ProbeDuration("/tmp/in.mp4")
	if !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("expected ErrToolUnavailable, got %v", err)
	}
}

func TestProbeDurationNonExecutableBinary(t *testing.T) {
	dir := t.TempDir()
	// Present on PATH but without the execute bit.
	if err := os.WriteFile(filepath.Join(dir, FFprobeCommand), []byte("#!/bin/sh\n"), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("PATH", dir)

	_, err := NewExecRunner(nil).ProbeDuration("/tmp/in.mp4")
	if !errors.Is(err, ErrToolUnavailable) {
		t.Errorf("expected ErrToolUnavailable for non-executable binary, got %v", err)
	}
}
