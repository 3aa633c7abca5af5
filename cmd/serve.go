package cmd

import (
	"path/filepath"

	"github.com/jsphweid/notewindow/config"
	"github.com/jsphweid/notewindow/constants"
	"github.com/jsphweid/notewindow/inspector"
	"github.com/jsphweid/notewindow/log"
	"github.com/jsphweid/notewindow/pipeline"
	"github.com/jsphweid/notewindow/util"
	"github.com/spf13/cobra"
)

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the record inspector",
	Long:  `Serves a browser UI and JSON API for paging through generated records`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return NewInspector(cfg).ListenAndServe(cfg.Addr)
	},
}

// NewInspector builds the inspector for c, with the last run's manifest if
// one is there.
func NewInspector(c config.Config) *inspector.Server {
	s := inspector.NewServer(c.RecordsDir, c.Splits, inspector.DefaultIdleClose)
	manifest, err := util.ReadJSON[pipeline.Report](filepath.Join(c.RecordsDir, constants.ManifestName))
	if err == nil {
		s.Manifest = &manifest
	} else {
		log.Inspect.Debugf("No manifest: %v", err)
	}
	return s
}
