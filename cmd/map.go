package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/ingest"
	"github.com/KaramelBytes/ledgerloom/internal/report"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
	"github.com/KaramelBytes/ledgerloom/internal/utils"
)

var mapFormat string

var mapCmd = &cobra.Command{
	Use:   "map <file>",
	Short: "Map export headers onto the canonical schema and print the mapping report",
	Long: `Map reads a CSV, TSV or XLSX export, repairs its structure, matches each
header against the known aliases and reports mapped, unmapped, synthesized and
missing fields. The command fails when required fields are missing unless
--allow-incomplete is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(mapFormat); err != nil {
			return err
		}
		_, rep, err := normalize(args[0])
		if err != nil {
			return err
		}
		var out []byte
		if mapFormat == "json" {
			if out, err = utils.PrettyJSON(rep); err != nil {
				return err
			}
		} else {
			out = []byte(report.Mapping(filepath.Base(args[0]), rep))
		}
		if err := emit(cmd, "mapping report", out); err != nil {
			return err
		}
		return rejectIncomplete(rep)
	},
}

var repairCmd = &cobra.Command{
	Use:   "repair <file>",
	Short: "Print an export with overflowing rows re-quoted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := ingest.ReadFile(args[0], ingest.Options{Sheet: flagSheet})
		if err != nil {
			return err
		}
		fixed := schema.RepairStructure(text)
		if fixed != text {
			logger.Info("repaired export structure", zap.String("file", args[0]))
		}
		return emit(cmd, "repaired export", []byte(fixed))
	},
}

func init() {
	rootCmd.AddCommand(mapCmd)
	addInputFlags(mapCmd)
	addOutputFlags(mapCmd, &mapFormat, "json")

	rootCmd.AddCommand(repairCmd)
	repairCmd.Flags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
	repairCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "optional path to write the repaired CSV")
}
