package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldConstructors(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		expected Field
	}{
		{
			name:     "String field",
			field:    String("key", "value"),
			expected: Field{Key: "key", Value: "value"},
		},
		{
			name:     "Int field",
			field:    Int("count", 42),
			expected: Field{Key: "count", Value: 42},
		},
		{
			name:     "Duration field",
			field:    Duration("elapsed", 5*time.Second),
			expected: Field{Key: "elapsed", Value: 5 * time.Second},
		},
		{
			name:     "Strings field",
			field:    Strings("paths", []string{"a", "b"}),
			expected: Field{Key: "paths", Value: []string{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.Key, tt.field.Key)
			assert.Equal(t, tt.expected.Value, tt.field.Value)
		})
	}
}

func TestErr(t *testing.T) {
	field := Err(errors.New("boom"))
	assert.Equal(t, "error", field.Key)
	assert.Error(t, field.Value.(error))

	field = Err(nil)
	assert.Equal(t, "error", field.Key)
	assert.Nil(t, field.Value)
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(InfoLevel, &buf)

	log.Info("change detected", String("path", "main.go"), Int("files", 3))

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "change detected", event["message"])
	assert.Equal(t, "main.go", event["path"])
	assert.Equal(t, float64(3), event["files"])
}

func TestLoggerLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(WarnLevel, &buf)

	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(InfoLevel, &buf).WithPrefix("app")

	log.Info("starting")

	var event map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "app", event["rule"])
}

func TestWriterSplitsLines(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput(InfoLevel, &buf)

	n, err := log.Writer().Write([]byte("first\nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, len("first\nsecond\n"), n)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "first", first["message"])
}
