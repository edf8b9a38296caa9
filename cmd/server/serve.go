// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/move-permit-backend/internal/database"
	"github.com/javajoker/move-permit-backend/internal/router"
	"github.com/javajoker/move-permit-backend/internal/services"
)

func newServeCmd() *cobra.Command {
	var shutdownTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer database.Close(db)

			redisClient := newRedisClient(cfg)
			if redisClient != nil {
				defer redisClient.Close()
				if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
					logrus.WithError(err).Warn("Redis unreachable, status events will not be published until it recovers")
				}
			}

			storage, err := services.NewStorageService(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}

			store := services.NewPermitStore(db)
			leases := services.NewLeaseDirectory(db)
			notifications := services.NewNotificationService(db, redisClient, cfg.Redis.StatusStream, cfg.I18n.DefaultLocale)

			permitService := services.NewPermitService(store, leases, notifications, storage, services.PermitServiceConfig{
				MoveInPrefix:  cfg.Permit.MoveInPrefix,
				MoveOutPrefix: cfg.Permit.MoveOutPrefix,
				Upload: services.UploadOptions{
					MaxSize:      cfg.Upload.MaxUploadBytes(),
					AllowedTypes: cfg.Upload.AllowedTypes,
					IsPublic:     cfg.Upload.Public,
				},
			})

			r, stopRouter := router.Initialize(db, cfg, router.Services{
				Permits:       permitService,
				Queries:       services.NewPermitQueryService(store, leases),
				Notifications: notifications,
			})
			defer stopRouter()

			srv := &http.Server{
				Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
				Handler:      r,
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
				IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				logrus.WithField("addr", srv.Addr).Info("Starting server")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			// Wait for interrupt signal to gracefully shutdown the server
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-quit:
			}
			logrus.Info("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			// Let queued notifications finish before the database closes.
			permitService.Wait()

			logrus.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 30*time.Second, "grace period for in-flight requests")
	return cmd
}
