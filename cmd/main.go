package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nikhil/orgchart/internal/app"
	"github.com/nikhil/orgchart/internal/config"
	"github.com/nikhil/orgchart/internal/database"
	"github.com/nikhil/orgchart/internal/logger"
	"github.com/nikhil/orgchart/internal/routes"
)

func main() {
	root := &cobra.Command{
		Use:           "orgchart",
		Short:         "Team structure and project directory API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewLogger("orgchart")
	defer log.Sync()

	db, err := database.Open(ctx, cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	c, err := app.NewCache(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}

	services := app.NewServices(cfg, db, c)
	go services.Hub.Run(ctx)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      routes.RegisterAllRoutes(services),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server is running", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func migrateCmd() *cobra.Command {
	var target int64

	cmd := &cobra.Command{
		Use:       "migrate [up|status|down]",
		Short:     "Manage the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "status", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.NewLogger("migrate")
			defer log.Sync()

			db, err := database.Open(cmd.Context(), cfg.DSN())
			if err != nil {
				return err
			}
			defer db.Close()

			migrator, err := database.NewMigrator(db, log)
			if err != nil {
				return err
			}
			switch args[0] {
			case "up":
				return migrator.Up(cmd.Context())
			case "status":
				return migrator.Status(cmd.Context())
			case "down":
				return migrator.Down(cmd.Context(), target)
			default:
				return fmt.Errorf("unknown migrate action %s", strconv.Quote(args[0]))
			}
		},
	}
	cmd.Flags().Int64Var(&target, "to", 0, "roll back down to this version")
	return cmd
}
