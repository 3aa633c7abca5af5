package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jsphweid/notewindow/sample"
	"github.com/jsphweid/notewindow/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var midiOut string

func init() {
	inspectCmd.Flags().StringVar(&midiOut, "midi", "", "also write the record as a MIDI file")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <split> <index>",
	Short: "Inspects a record",
	Long:  `Prints one record of a split as JSON`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "index %q", args[1])
		}
		return inspect(args[0], index)
	},
}

func inspect(split string, index int) error {
	r, err := store.Open(store.Path(cfg.RecordsDir, split))
	if err != nil {
		if errors.Is(err, store.ErrNoRecords) {
			return errors.Errorf("no records for %v in %v, run generate first", split, cfg.RecordsDir)
		}
		return err
	}
	defer r.Close()

	rec, ok, err := r.Lookup(index)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Errorf("index %v out of range, %v has %v records", index, split, r.Count())
	}

	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if midiOut != "" {
		f, err := os.Create(midiOut)
		if err != nil {
			return errors.Wrap(err, "could not create midi file")
		}
		defer f.Close()
		if _, err := sample.Create(rec).WriteTo(f); err != nil {
			return errors.Wrap(err, "could not write midi file")
		}
		fmt.Printf("wrote %v\n", midiOut)
	}
	return nil
}
