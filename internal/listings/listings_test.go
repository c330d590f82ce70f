package listings

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "servers.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func captureLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	return logger, buf
}

const sample = `[
  {"name": "Postgres", "category": "Database", "description": "SQL access", "url": "https://example.com/pg"},
  {"name": "Brave", "category": "Search Engine", "description": "Web search", "url": "https://example.com/brave"},
  {"name": "GitHub", "category": "Version Control", "description": "Repos and issues", "url": "https://example.com/gh", "stars": 42}
]`

func TestLoad_PreservesOrderAndFields(t *testing.T) {
	records, err := Load(writeFile(t, sample))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Postgres", records[0].Name)
	assert.Equal(t, "Brave", records[1].Name)
	assert.Equal(t, "GitHub", records[2].Name)
	assert.Equal(t, "Version Control", records[2].Category)
	assert.Equal(t, "https://example.com/gh", records[2].URL)
}

func TestLoad_KeepsRawElement(t *testing.T) {
	records, err := Load(writeFile(t, sample))
	require.NoError(t, err)

	var back map[string]any
	require.NoError(t, json.Unmarshal(records[2].Raw, &back))
	assert.EqualValues(t, 42, back["stars"])

	out, err := json.Marshal(records[2])
	require.NoError(t, err)
	assert.JSONEq(t, string(records[2].Raw), string(out))
}

func TestLoad_OpaqueElements(t *testing.T) {
	records, err := Load(writeFile(t, `[1, "two", null, {"name": 5}, {"name": "ok"}]`))
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, json.RawMessage(`1`), records[0].Raw)
	assert.Empty(t, records[0].Name)
	assert.Empty(t, records[3].Name)
	assert.Equal(t, "ok", records[4].Name)
}

func TestLoad_EmptyArray(t *testing.T) {
	records, err := Load(writeFile(t, `[]`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestLoad_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	_, err := Load(missing)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindNotFound, Kind(err))

	cases := map[string]string{
		"syntax":      `[{"name": "x",}]`,
		"truncated":   `[{"name": "x"`,
		"empty":       ``,
		"object":      `{"name": "x"}`,
		"null":        `null`,
		"extra data":  `[] []`,
		"extra token": `[{}] x`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			require.ErrorIs(t, err, ErrMalformed)
			assert.Equal(t, KindMalformed, Kind(err))
		})
	}
}

func TestKind_Other(t *testing.T) {
	assert.Equal(t, KindOther, Kind(os.ErrPermission))
}

func TestLoadOrEmpty_LogsKind(t *testing.T) {
	logger, buf := captureLogger()

	records := LoadOrEmpty(filepath.Join(t.TempDir(), "nope.json"), logger)
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Contains(t, buf.String(), "level=error")
	assert.Contains(t, buf.String(), "kind=not_found")

	buf.Reset()
	records = LoadOrEmpty(writeFile(t, `not json`), logger)
	assert.Empty(t, records)
	assert.Contains(t, buf.String(), "kind=malformed")
}

func TestLoadOrEmpty_Directory(t *testing.T) {
	logger, buf := captureLogger()

	records := LoadOrEmpty(t.TempDir(), logger)
	assert.Empty(t, records)
	assert.Contains(t, buf.String(), "level=error")
}

func TestCount_RereadsFile(t *testing.T) {
	logger, _ := captureLogger()
	path := writeFile(t, sample)
	assert.Equal(t, 3, Count(path, logger))

	require.NoError(t, os.WriteFile(path, []byte(`[{}]`), 0o644))
	assert.Equal(t, 1, Count(path, logger))

	require.NoError(t, os.Remove(path))
	assert.Equal(t, 0, Count(path, logger))
}
