package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/ledgerloom/internal/analytics"
	"github.com/KaramelBytes/ledgerloom/internal/report"
	"github.com/KaramelBytes/ledgerloom/internal/schema"
	"github.com/KaramelBytes/ledgerloom/internal/utils"
)

var (
	anaPayments string
	anaPeriods  int
	anaTasks    string
	anaFormat   string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Normalize an export and run forecasting, anomaly detection and segmentation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := checkFormat(anaFormat); err != nil {
			return err
		}
		kinds, err := analytics.ParseKinds(anaTasks)
		if err != nil {
			return err
		}
		if anaPeriods < 0 {
			return fmt.Errorf("--periods must be positive, got %d", anaPeriods)
		}
		periods := cfg.ForecastPeriods
		if anaPeriods > 0 {
			periods = anaPeriods
		}

		path := args[0]
		ds, rep, err := normalize(path)
		if err != nil {
			return err
		}
		if err := rejectIncomplete(rep); err != nil {
			return err
		}
		doc := &report.Document{Name: filepath.Base(path), Mapping: rep}
		if rep.SourceFormat != schema.SourceUnknown {
			s, err := report.Summarize(ds, rep.SourceFormat)
			if err != nil {
				return err
			}
			doc.Payments = append(doc.Payments, s)
		}
		if anaPayments != "" {
			pds, prep, err := normalize(anaPayments)
			if err != nil {
				return fmt.Errorf("payments: %w", err)
			}
			s, err := report.Summarize(pds, prep.SourceFormat)
			if errors.Is(err, report.ErrUnknownSource) {
				logger.Warn("payments export format not recognized", zap.String("file", anaPayments))
			} else if err != nil {
				return fmt.Errorf("payments: %w", err)
			} else {
				doc.Payments = append(doc.Payments, s)
			}
		}

		ctx := cmd.Context()
		mc, err := openCache(ctx)
		if err != nil {
			return err
		}
		defer mc.Close()
		runner := analytics.NewRunner(mc, logger)
		doc.Results = runner.RunAll(ctx, ds, kinds, &analytics.Forecaster{Periods: periods})

		var out []byte
		if anaFormat == "json" {
			if out, err = utils.PrettyJSON(doc); err != nil {
				return err
			}
		} else {
			out = []byte(doc.Markdown())
		}
		return emit(cmd, "analysis", out)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addInputFlags(analyzeCmd)
	addOutputFlags(analyzeCmd, &anaFormat, "markdown")
	analyzeCmd.Flags().StringVar(&anaPayments, "payments", "", "optional payment processor export to summarize alongside")
	analyzeCmd.Flags().IntVar(&anaPeriods, "periods", 0, "days to forecast (default from config)")
	analyzeCmd.Flags().StringVar(&anaTasks, "tasks", "", "comma-separated tasks: revenue,anomaly,customer (default all)")
}
