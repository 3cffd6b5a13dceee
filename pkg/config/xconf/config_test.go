package xconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type correlationSection struct {
	HeaderName     string `koanf:"header_name"`
	ValidateFormat bool   `koanf:"validate_format"`
	Generator      string `koanf:"generator"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		format  Format
	}{
		{"yaml", "c.yaml", "correlation:\n  header_name: X-Req\n  validate_format: true\n", FormatYAML},
		{"yml", "c.yml", "correlation:\n  header_name: X-Req\n  validate_format: true\n", FormatYAML},
		{"json", "c.json", `{"correlation":{"header_name":"X-Req","validate_format":true}}`, FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := New(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.format, cfg.Format())

			var sec correlationSection
			require.NoError(t, cfg.Unmarshal("correlation", &sec))
			assert.Equal(t, "X-Req", sec.HeaderName)
			assert.True(t, sec.ValidateFormat)
		})
	}
}

func TestUnmarshal_KeepsPrefilledDefaults(t *testing.T) {
	cfg, err := NewFromBytes([]byte("correlation:\n  validate_format: true\n"), FormatYAML)
	require.NoError(t, err)

	sec := correlationSection{HeaderName: "X-Correlation-Id", Generator: "uuid"}
	require.NoError(t, cfg.Unmarshal("correlation", &sec))
	assert.Equal(t, "X-Correlation-Id", sec.HeaderName)
	assert.Equal(t, "uuid", sec.Generator)
	assert.True(t, sec.ValidateFormat)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = New(filepath.Join(dir, "c.toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = New(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	_, err = New(writeFile(t, dir, "bad.json", "{not json"))
	assert.ErrorIs(t, err, ErrParseFailed)

	_, err = NewFromBytes(nil, Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestNewFromBytes_EmptyAndNotReloadable(t *testing.T) {
	cfg, err := NewFromBytes(nil, FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, cfg.Client().Keys())
	assert.Empty(t, cfg.Path())
	assert.ErrorIs(t, cfg.Reload(), ErrNotReloadable)
}

func TestReload_KeepsSnapshotOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "c.yaml", "correlation:\n  header_name: A\n")
	cfg, err := New(path)
	require.NoError(t, err)

	writeFile(t, dir, "c.yaml", "correlation:\n  header_name: B\n")
	require.NoError(t, cfg.Reload())
	assert.Equal(t, "B", cfg.Client().String("correlation.header_name"))

	writeFile(t, dir, "c.yaml", "correlation: [unclosed\n")
	require.ErrorIs(t, cfg.Reload(), ErrParseFailed)
	assert.Equal(t, "B", cfg.Client().String("correlation.header_name"))
}

func TestWithDelim(t *testing.T) {
	cfg, err := NewFromBytes([]byte(`{"a":{"b":"v"}}`), FormatJSON, WithDelim("/"), WithTag("json"))
	require.NoError(t, err)
	assert.Equal(t, "v", cfg.Client().String("a/b"))
}
