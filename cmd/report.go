package cmd

import (
	"fmt"

	"github.com/jsphweid/notewindow/model"
	"github.com/jsphweid/notewindow/store"
	"github.com/jsphweid/notewindow/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Creates a report",
	Long:  `Summarizes the records of every split`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, split := range cfg.Splits {
			r, err := analyzeSplit(split)
			if errors.Is(err, store.ErrNoRecords) {
				fmt.Printf("%v: no records\n", split)
				continue
			}
			if err != nil {
				return err
			}
			r.print()
		}
		return nil
	},
}

type splitReport struct {
	split       string
	numRecords  int
	numNotes    int
	pieces      map[string]int
	minPitch    int
	maxPitch    int
	sumVelocity float64
}

func analyzeSplit(split string) (splitReport, error) {
	report := splitReport{split: split, pieces: make(map[string]int)}

	r, err := store.Open(store.Path(cfg.RecordsDir, split))
	if err != nil {
		return report, err
	}
	defer r.Close()

	err = r.Each(func(_ int, rec model.Record) error {
		report.numRecords++
		report.pieces[rec.Metadata.Composer+" - "+rec.Metadata.Title]++
		for _, n := range rec.Notes() {
			if report.numNotes == 0 {
				report.minPitch, report.maxPitch = n.Pitch, n.Pitch
			}
			report.numNotes++
			report.minPitch = util.Min(report.minPitch, n.Pitch)
			report.maxPitch = util.Max(report.maxPitch, n.Pitch)
			report.sumVelocity += n.Velocity
		}
		return nil
	})
	return report, err
}

func (r splitReport) print() {
	fmt.Printf("%v.numRecords: %v\n", r.split, r.numRecords)
	fmt.Printf("%v.numPieces: %v\n", r.split, len(r.pieces))
	fmt.Printf("%v.numNotes: %v\n", r.split, r.numNotes)
	if r.numNotes > 0 {
		fmt.Printf("%v.pitchRange: %v-%v\n", r.split, r.minPitch, r.maxPitch)
		fmt.Printf("%v.avgVelocity: %.1f\n", r.split, r.sumVelocity/float64(r.numNotes))
	}
	counts := make([]int, 0, len(r.pieces))
	for _, key := range util.SortedKeys(r.pieces) {
		counts = append(counts, r.pieces[key])
	}
	fmt.Printf("%v.recordsPerPiece: %v\n", r.split, util.Sum(counts)/uint64(util.Max(len(counts), 1)))
}
