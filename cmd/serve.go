package cmd

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chaos-io/rembg/server"
	"github.com/chaos-io/rembg/store"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the background removal HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer a.close()
			if addr != "" {
				a.cfg.Addr = addr
			}
			return a.serve()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default RMBG_ADDR)")
	return cmd
}

func (a *app) serve() error {
	a.initModel()

	if err := ensureDir(a.cfg.StorageDir); err != nil {
		return err
	}
	st := store.New(a.cfg.StorageDir)

	if a.cfg.CleanupSchedule != "" {
		janitor := store.NewJanitor(st, a.cfg.Retention, a.logger)
		if err := janitor.Start(a.cfg.CleanupSchedule); err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			janitor.Stop(ctx)
		}()
	}

	srv := server.New(server.Options{
		Handle:         a.handle,
		Store:          st,
		Logger:         a.logger,
		MaxUploadBytes: a.cfg.MaxUploadBytes(),
	})
	httpServer := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("rembg API listening", zap.String("addr", a.cfg.Addr), zap.Bool("model_loaded", a.handle.Ready()))
	return server.Serve(httpServer, a.cfg.ShutdownTimeout, a.logger)
}
