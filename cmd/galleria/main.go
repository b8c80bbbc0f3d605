package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mkells/galleria/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "galleria",
	Short:   "REST backend for a folder-organized image bucket",
	Long: `Galleria is a small REST backend that fronts an S3-compatible
object-storage bucket with folder/image listing, upload and delete,
plus a user directory with hashed credentials and a role check.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")
		var files []string
		if configFile != "" {
			files = []string{configFile}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: GALLERIA_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: galleria.db, env: GALLERIA_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-endpoint", "", "object storage endpoint (env: GALLERIA_STORAGE_ENDPOINT)")
	rootCmd.PersistentFlags().String("storage-bucket", "", "object storage bucket (default: images, env: GALLERIA_STORAGE_BUCKET)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
