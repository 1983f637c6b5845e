package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/admissions-assistant/internal/config"
	"github.com/jonathan/admissions-assistant/internal/server"
)

var (
	adminTokenSubject string
	adminTokenHours   int
)

var adminTokenCmd = &cobra.Command{
	Use:   "admin-token",
	Short: "Issue a bearer token for the reload endpoint",
	Long:  "Signs an admin token with ADMIN_JWT_SECRET for use with POST /reload-context.",
	RunE:  runAdminToken,
}

func init() {
	adminTokenCmd.Flags().StringVar(&adminTokenSubject, "subject", "admin", "Token subject")
	adminTokenCmd.Flags().IntVar(&adminTokenHours, "hours", config.DefaultAdminTokenHours, "Token lifetime in hours")
	rootCmd.AddCommand(adminTokenCmd)
}

func runAdminToken(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is not set")
	}
	jwtCfg, err := config.NewJWTConfig(cfg.AdminJWTSecret, adminTokenHours)
	if err != nil {
		return err
	}
	token, err := server.NewJWTService(jwtCfg).GenerateToken(adminTokenSubject)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
