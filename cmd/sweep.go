package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/jon4hz/episweep/config"
	"github.com/jon4hz/episweep/engine"
	"github.com/jon4hz/episweep/sonarr"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a single sweep and exit",
	Long:  `Run one reconciliation pass over all pending watch records and exit, without starting the webhook server.`,
	Run:   runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, _ []string) {
	cfg, cfgFile, err := config.LoadFile(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	store := config.NewStore(cfg, cfgFile)

	db, err := openDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close() //nolint:errcheck

	eng, err := engine.New(store, db, sonarr.New(store))
	if err != nil {
		log.Fatalf("failed to create engine: %v", err)
	}
	defer eng.Close() //nolint:errcheck

	if err := eng.Sweep(cmd.Context()); err != nil {
		log.Fatalf("sweep failed: %v", err)
	}
	log.Info("sweep completed")
}
