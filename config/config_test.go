package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jsphweid/notewindow/window"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert := assert.New(t)
	assert.Equal(window.Config{WindowSize: 100, PredictSize: 20, Stride: 50}, cfg.Window)
	assert.Equal([]string{"train", "validation", "test"}, cfg.Splits)
	assert.Equal("maestro-sustain-v2", cfg.SourceDataset)
	assert.NoError(cfg.Validate())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("RECORDS_PATH", "/data/records")
	t.Setenv("DYNAMODB_TABLE", "pieces")
	cfg := Default()
	assert.Equal(t, "/data/records", cfg.RecordsDir)
	assert.Equal(t, "pieces", cfg.Dynamo.Table)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("MEDIA_PATH", "")
	path := filepath.Join(t.TempDir(), "notewindow.yaml")
	data := `
window:
  window_size: 64
  predict_size: 16
  stride: 8
splits: [train]
corpus: midi
media_dir: /media/maestro
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0666))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(window.Config{WindowSize: 64, PredictSize: 16, Stride: 8}, cfg.Window)
	assert.Equal([]string{"train"}, cfg.Splits)
	assert.Equal(CorpusMidi, cfg.Corpus)
	assert.Equal("/media/maestro", cfg.MediaDir)
	// untouched keys keep their defaults
	assert.Equal("maestro-sustain-v2", cfg.SourceDataset)
	assert.NoError(cfg.Validate())
}

func TestEnvironmentBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notewindow.yaml")
	data := `
records_dir: /from/yaml
corpus_dir: /corpus/from/yaml
log_level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0666))
	t.Setenv("RECORDS_PATH", "/from/env")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORPUS_PATH", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal("/from/env", cfg.RecordsDir)
	assert.Equal("debug", cfg.LogLevel)
	// unset variables leave the file's value alone
	assert.Equal("/corpus/from/yaml", cfg.CorpusDir)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("windw: {}\n"), 0666))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Window.PredictSize = cfg.Window.WindowSize
	assert.True(t, errors.Is(cfg.Validate(), window.ErrInvalidConfig))

	cfg = Default()
	cfg.Corpus = "hub"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Corpus = CorpusMidi
	cfg.MediaDir = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Splits = nil
	assert.Error(t, cfg.Validate())
}
