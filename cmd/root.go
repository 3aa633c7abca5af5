package cmd

import (
	"github.com/jsphweid/notewindow/config"
	"github.com/jsphweid/notewindow/log"
	"github.com/spf13/cobra"
)

var (
	cfg        config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "notewindow",
	Short: "Windowed note datasets for sequence models",
	Long: `notewindow cuts a corpus of piano performances into overlapping,
fixed-size note windows (context + target) and lets you browse the result.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &loaded)
		cfg = loaded
		return log.SetLevel(cfg.LogLevel)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.String("records", "", "directory holding <split>.jsonl records (env RECORDS_PATH)")
	flags.StringSlice("splits", nil, "splits to process, in order")
	flags.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
}

// applyFlags copies explicitly set flags over c.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("records") {
		c.RecordsDir, _ = flags.GetString("records")
	}
	if flags.Changed("splits") {
		c.Splits, _ = flags.GetStringSlice("splits")
	}
	if flags.Changed("log-level") {
		c.LogLevel, _ = flags.GetString("log-level")
	}
	if f := flags.Lookup("window"); f != nil && f.Changed {
		c.Window.WindowSize, _ = flags.GetInt("window")
	}
	if f := flags.Lookup("predict"); f != nil && f.Changed {
		c.Window.PredictSize, _ = flags.GetInt("predict")
	}
	if f := flags.Lookup("stride"); f != nil && f.Changed {
		c.Window.Stride, _ = flags.GetInt("stride")
	}
	if f := flags.Lookup("corpus"); f != nil && f.Changed {
		c.Corpus, _ = flags.GetString("corpus")
	}
	if f := flags.Lookup("corpus-dir"); f != nil && f.Changed {
		c.CorpusDir, _ = flags.GetString("corpus-dir")
	}
	if f := flags.Lookup("media-dir"); f != nil && f.Changed {
		c.MediaDir, _ = flags.GetString("media-dir")
	}
	if f := flags.Lookup("dynamodb-endpoint"); f != nil && f.Changed {
		c.Dynamo.Endpoint, _ = flags.GetString("dynamodb-endpoint")
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		c.Addr, _ = flags.GetString("addr")
	}
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
