package cmd

import (
	"fmt"

	"github.com/jsphweid/notewindow/config"
	"github.com/jsphweid/notewindow/corpus"
	"github.com/jsphweid/notewindow/db"
	"github.com/jsphweid/notewindow/pipeline"
	"github.com/spf13/cobra"
)

var maxFiles int

func init() {
	flags := generateCmd.Flags()
	flags.Int("window", 0, "notes per window (context + target)")
	flags.Int("predict", 0, "notes per window reserved for the target")
	flags.Int("stride", 0, "notes between consecutive window starts")
	flags.String("corpus", "", "corpus kind: jsonl or midi")
	flags.String("corpus-dir", "", "directory of <split>.jsonl pieces (env CORPUS_PATH)")
	flags.String("media-dir", "", "directory of <split>/**/*.mid files (env MEDIA_PATH)")
	flags.String("dynamodb-endpoint", "", "look up MIDI piece sources in DynamoDB at this endpoint")
	flags.IntVar(&maxFiles, "max-files", 0, "limit MIDI files per split (0 = all)")
	rootCmd.AddCommand(generateCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Creates records",
	Long:  `Cuts every piece of every split into windows and writes <records>/<split>.jsonl`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := Generate(cfg)
		if err != nil {
			return err
		}
		for _, s := range report.Splits {
			if s.Skipped {
				fmt.Printf("%v: skipped (%v)\n", s.Split, s.Error)
				continue
			}
			fmt.Printf("%v: %v pieces processed, %v failed, %v records -> %v\n", s.Split, s.Processed, s.Failed, s.Records, s.Path)
		}
		fmt.Printf("total records: %v\n", report.TotalRecords())
		return nil
	},
}

func newSource(c config.Config) (corpus.Source, error) {
	if c.Corpus == config.CorpusJSONL {
		return corpus.NewJSONLSource(c.CorpusDir), nil
	}

	src := corpus.NewMidiSource(c.MediaDir, nil)
	src.MaxFiles = maxFiles
	if c.Dynamo.Endpoint != "" {
		client, err := db.NewClient(c.Dynamo.Endpoint, c.Dynamo.Region, c.Dynamo.Table)
		if err != nil {
			return nil, err
		}
		src.Lookup = client
	}
	return src, nil
}

// Generate runs the whole pipeline for c. Only an invalid configuration or
// an unwritable records directory is an error.
func Generate(c config.Config) (pipeline.Report, error) {
	if err := c.Validate(); err != nil {
		return pipeline.Report{}, err
	}
	src, err := newSource(c)
	if err != nil {
		return pipeline.Report{}, err
	}
	p, err := pipeline.New(src, c.Window, c.SourceDataset, c.RecordsDir, c.Splits)
	if err != nil {
		return pipeline.Report{}, err
	}
	return p.Run()
}
