package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	apphttp "pamadmin/internal/http"
	"pamadmin/internal/log"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(rt *runtime) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin web front-end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = ":" + rt.cfg.Port
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := rt.build(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					rt.logger.Error("Cleanup failed", log.FieldError, err)
				}
			}()

			srv, err := apphttp.NewServer(addr, app.ServerDeps())
			if err != nil {
				return err
			}
			app.Janitor.Start(ctx, cacheSweepEvery)

			_, done := GracefulShutdown(ctx, rt.logger, shutdownTimeout, func(sctx context.Context) {
				if err := srv.Shutdown(sctx); err != nil {
					rt.logger.Error("Server shutdown failed", log.FieldError, err)
				}
				app.Janitor.Stop()
			})

			serveErr := make(chan error, 1)
			go func() {
				rt.logger.Info("Starting server",
					"addr", addr,
					"backend", rt.cfg.DataBackend,
					"session_store", rt.cfg.SessionStore,
					"amqp", rt.cfg.AMQPEnabled(),
					"sheets_export", rt.cfg.SheetsExportEnabled())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case err := <-serveErr:
				cancel()
				<-done
				return err
			case <-done:
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default \":$PORT\")")
	return cmd
}
