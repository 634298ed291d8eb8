package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the model cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cached model counts per task",
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer mc.Close()
		st, err := mc.Stats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend: %s\n", cfg.CacheBackend)
		if cfg.CacheBackend != "memory" {
			fmt.Fprintf(out, "dir: %s\n", cfg.CacheDir)
		}
		fmt.Fprintf(out, "entries: %d\n", st.Entries)
		for _, k := range st.Kinds() {
			fmt.Fprintf(out, "- %s: %d\n", k, st.ByKind[k])
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached model",
	RunE: func(cmd *cobra.Command, args []string) error {
		mc, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		defer mc.Close()
		if err := mc.Clear(cmd.Context()); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Cleared model cache")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
