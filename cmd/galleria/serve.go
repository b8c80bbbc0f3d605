package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkells/galleria"
	"github.com/mkells/galleria/config"
	"github.com/mkells/galleria/database"
	gallhttp "github.com/mkells/galleria/http"
	"github.com/mkells/galleria/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the Galleria HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 5000, "HTTP server port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	repo, closeDB, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeDB()

	slog.Info("connected to database", "type", cfg.Database.Type)

	client, err := storage.NewClient(cfg.Storage.ClientConfig())
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}

	gateway, err := storage.NewGateway(client, cfg.Storage.Bucket)
	if err != nil {
		return fmt.Errorf("create storage gateway: %w", err)
	}

	slog.Info("connected to object storage", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)

	callTimeout := time.Duration(cfg.Service.CallTimeout) * time.Second

	gallery, err := galleria.NewGalleryService(gateway, galleria.GalleryConfig{
		ListLimit:   cfg.Service.ListLimit,
		CallTimeout: callTimeout,
	})
	if err != nil {
		return fmt.Errorf("create gallery service: %w", err)
	}

	users, err := galleria.NewUserService(repo, galleria.UserConfig{
		CallTimeout: callTimeout,
	})
	if err != nil {
		return fmt.Errorf("create user service: %w", err)
	}

	handlerConfig := gallhttp.HandlerConfig{
		CORS:          cfg.CORS,
		MaxUploadSize: cfg.Server.MaxUploadSize,
	}

	handler := gallhttp.NewHandler(&handlerConfig, gallery, users)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
		cancel()
	}()

	slog.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
