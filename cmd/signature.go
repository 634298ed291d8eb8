package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ledgerloom/internal/signature"
)

var signatureCmd = &cobra.Command{
	Use:   "signature <file>",
	Short: "Print the cache signature of a normalized export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, _, err := normalize(args[0])
		if err != nil {
			return err
		}
		shape := signature.Describe(ds)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "signature: %s\n", shape.Sum())
		fmt.Fprintf(out, "rows: %d\n", shape.Rows)
		if !shape.FirstDate.IsZero() {
			fmt.Fprintf(out, "dates: %s .. %s\n", shape.FirstDate.Format("2006-01-02"), shape.LastDate.Format("2006-01-02"))
		}
		fmt.Fprintf(out, "total: %.2f\n", shape.Total)
		fmt.Fprintf(out, "products: %d\n", len(shape.Products))
		fmt.Fprintf(out, "customers: %d\n", shape.Identities)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signatureCmd)
	signatureCmd.Flags().StringVar(&flagSheet, "sheet", "", "XLSX: sheet name to read (default first sheet)")
}
