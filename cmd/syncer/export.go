package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"lotofacil_sync/internal/bundle"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the draws of the local bundle as CSV",
	Long: `Export reads the downloaded bundle and writes one CSV row per draw
(contest, date, numbers). Use --out - to write to stdout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		b, err := bundle.NewFile(cfg.Local.BundleFile).Read()
		if err != nil {
			return fmt.Errorf("read local bundle: %w", err)
		}
		if b == nil {
			return errors.New("no local bundle, run sync first")
		}

		if exportOut == "-" {
			err = bundle.WriteCSV(cmd.OutOrStdout(), b.Draws)
		} else {
			err = bundle.WriteCSVFile(exportOut, b.Draws)
		}
		if err != nil {
			return fmt.Errorf("write csv: %w", err)
		}

		logger.Info("draws exported", "out", exportOut, "draws", len(b.Draws))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "draws.csv", "output file, - for stdout")
}
