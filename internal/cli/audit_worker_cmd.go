package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"pamadmin/internal/amqp"
	"pamadmin/internal/log"
	"pamadmin/internal/storage"
	"pamadmin/internal/worker"
)

func newAuditWorkerCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "audit-worker",
		Short: "Consume status change events into the audit log",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := rt.cfg
			if !cfg.AMQPEnabled() {
				return errors.New("audit-worker needs AMQP_URL; without it status changes are audited inline by serve")
			}

			repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			ctx, done := GracefulShutdown(cmd.Context(), rt.logger, shutdownTimeout, nil)

			client, err := amqp.DialWithRetry(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, amqpDialAttempts)
			if err != nil {
				return err
			}
			defer client.Close()

			rt.logger.Info("Starting audit worker",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue,
				log.FieldPath, cfg.SQLiteDBPath)

			err = worker.NewAuditWorker(repo, rt.logger).Run(ctx, client)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			<-done
			return nil
		},
	}
}
