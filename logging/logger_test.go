package logging

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		err  bool
	}{
		{in: "debug", want: LogLevelDebug},
		{in: "INFO", want: LogLevelInfo},
		{in: "", want: LogLevelInfo},
		{in: "warning", want: LogLevelWarn},
		{in: "error", want: LogLevelError},
		{in: "loud", want: LogLevelInfo, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew_JSONLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: LogLevelWarn, Format: "json", Output: &buf})

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"key":"value"`)
}

func TestWith_SlogAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSession(WithComponent(New(&Config{Level: LogLevelDebug, Format: "text", Output: &buf}), "session"), "chat-1")

	logger.Debug("hello")

	out := buf.String()
	assert.Contains(t, out, "component=session")
	assert.Contains(t, out, "session_id=chat-1")
}

type recordingLogger struct {
	entries [][]any
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record(msg, args) }

func (r *recordingLogger) record(msg string, args []any) {
	r.entries = append(r.entries, append([]any{msg}, args...))
}

func TestWith_CustomLogger(t *testing.T) {
	rec := &recordingLogger{}
	logger := With(With(rec, "a", 1), "b", 2)

	logger.Info("msg", "c", 3)

	require.Len(t, rec.entries, 1)
	assert.Equal(t, []any{"msg", "a", 1, "b", 2, "c", 3}, rec.entries[0])
}

func TestWith_NilAndNoOp(t *testing.T) {
	assert.Equal(t, NoOpLogger{}, With(nil, "k", "v"))
	assert.Equal(t, NoOpLogger{}, With(NoOpLogger{}, "k", "v"))
}

func TestLogParticipantCall(t *testing.T) {
	rec := &recordingLogger{}

	LogParticipantCall(rec, "Alice", "gpt-4o-mini", time.Second, "success", nil)
	LogParticipantCall(rec, "Bob", "claude", time.Second, "failed", errors.New("boom"))

	require.Len(t, rec.entries, 2)
	assert.Equal(t, "participant call completed", rec.entries[0][0])
	assert.Equal(t, "participant call failed", rec.entries[1][0])
	assert.Contains(t, rec.entries[1], "boom")
}
