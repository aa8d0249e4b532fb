package async

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Debug(format string, args ...any) { l.append(format, args...) }
func (l *recordingLogger) Info(format string, args ...any)  { l.append(format, args...) }
func (l *recordingLogger) Warn(format string, args ...any)  { l.append(format, args...) }
func (l *recordingLogger) Error(format string, args ...any) { l.append(format, args...) }

func (l *recordingLogger) append(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}

func TestGoRunsFunction(t *testing.T) {
	done := make(chan struct{})
	Go(nil, "worker", func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("function never ran")
	}
}

func TestGoRecoversPanic(t *testing.T) {
	logger := &recordingLogger{}
	Go(logger, "flaky", func() { panic("boom") })

	require.Eventually(t, func() bool {
		return len(logger.snapshot()) == 1
	}, time.Second, time.Millisecond)

	line := logger.snapshot()[0]
	require.Contains(t, line, "flaky")
	require.Contains(t, line, "boom")
}

func TestRecoverWithoutPanicIsSilent(t *testing.T) {
	logger := &recordingLogger{}
	func() {
		defer Recover(logger, "calm")
	}()
	require.Empty(t, logger.snapshot())
}
