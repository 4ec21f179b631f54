package eventlog_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/muniledger/internal/eventlog"
)

func TestLog_Event(t *testing.T) {
	var buf bytes.Buffer

	log := eventlog.New(&buf)
	log.Event(context.Background(), "parse_done", map[string]any{"rows": 3, "table": "resources"})
	log.Event(context.Background(), "run_completed", nil)

	scanner := bufio.NewScanner(&buf)

	var lines []map[string]any

	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))

		lines = append(lines, line)
	}

	require.Len(t, lines, 2)
	assert.Equal(t, "parse_done", lines[0]["event"])
	assert.Equal(t, map[string]any{"rows": 3.0, "table": "resources"}, lines[0]["detail"])
	assert.NotEmpty(t, lines[0]["ts"])
	assert.NotContains(t, lines[0], "level")
	assert.NotContains(t, lines[0], "msg")
}

func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")

	for range 2 {
		log, err := eventlog.Open(path)
		require.NoError(t, err)

		log.Event(context.Background(), "run_start", map[string]string{"strategy": "parsers"})
		require.NoError(t, log.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte("\n")))
}

func TestLog_Nil(t *testing.T) {
	var log *eventlog.Log

	log.Event(context.Background(), "ignored", nil)
	assert.NoError(t, log.Close())
}
