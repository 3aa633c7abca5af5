// Package config resolves run settings: built-in defaults, then an optional
// YAML file, then the environment. Command line flags are applied last by
// cmd.
package config

import (
	"os"

	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/window"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	CorpusJSONL = "jsonl"
	CorpusMidi  = "midi"
)

type Dynamo struct {
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
	Table    string `yaml:"table"`
}

type Config struct {
	Window        window.Config `yaml:"window"`
	Splits        []string      `yaml:"splits"`
	SourceDataset string        `yaml:"source_dataset"`
	RecordsDir    string        `yaml:"records_dir"`
	Corpus        string        `yaml:"corpus"`
	CorpusDir     string        `yaml:"corpus_dir"`
	MediaDir      string        `yaml:"media_dir"`
	Dynamo        Dynamo        `yaml:"dynamodb"`
	LogLevel      string        `yaml:"log_level"`
	Addr          string        `yaml:"addr"`
}

func Default() Config {
	return Config{
		Window: window.Config{
			WindowSize:  constants.DefaultWindowSize,
			PredictSize: constants.DefaultPredictSize,
			Stride:      constants.DefaultStride,
		},
		Splits:        append([]string(nil), constants.DefaultSplits...),
		SourceDataset: constants.SourceDataset,
		RecordsDir:    constants.GetRecordsDir(),
		Corpus:        CorpusJSONL,
		CorpusDir:     constants.GetCorpusDir(),
		MediaDir:      constants.GetMediaDir(),
		Dynamo: Dynamo{
			Endpoint: constants.GetDynamoEndpoint(),
			Region:   constants.GetDynamoRegion(),
			Table:    constants.GetDynamoTable(),
		},
		LogLevel: constants.GetLogLevel(),
		Addr:     ":8080",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "could not read config %v", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "could not parse config %v", path)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides c with every environment variable that is set.
func applyEnv(c *Config) {
	for name, field := range map[string]*string{
		constants.RecordsPathEnv:    &c.RecordsDir,
		constants.CorpusPathEnv:     &c.CorpusDir,
		constants.MediaPathEnv:      &c.MediaDir,
		constants.DynamoEndpointEnv: &c.Dynamo.Endpoint,
		constants.DynamoTableEnv:    &c.Dynamo.Table,
		constants.DynamoRegionEnv:   &c.Dynamo.Region,
		constants.LogLevelEnv:       &c.LogLevel,
	} {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
}

func (c Config) Validate() error {
	if err := c.Window.Validate(); err != nil {
		return err
	}
	if len(c.Splits) == 0 {
		return errors.New("at least one split is required")
	}
	switch c.Corpus {
	case CorpusJSONL:
		if c.CorpusDir == "" {
			return errors.New("corpus_dir is required for the jsonl corpus")
		}
	case CorpusMidi:
		if c.MediaDir == "" {
			return errors.New("media_dir (or MEDIA_PATH) is required for the midi corpus")
		}
	default:
		return errors.Errorf("unknown corpus %q, expected %q or %q", c.Corpus, CorpusJSONL, CorpusMidi)
	}
	return nil
}
