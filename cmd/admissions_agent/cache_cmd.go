package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the scrape cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached pages from the cache directory",
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.CacheBackend != "disk" {
		return fmt.Errorf("cache clear only supports the disk backend; redis entries expire after %ds", a.cfg.CacheTTL)
	}
	n, err := a.disk.Clear()
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache files from %s\n", n, a.cfg.CacheDir)
	return nil
}
