package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pgcrud/errors"
	"pgcrud/logging"
)

// newWatchCommand 周期性探测连接池，首次失败时返回错误使进程以非零状态退出
func (a *app) newWatchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Probe database connectivity and exit on the first pool error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			successColor.Fprintf(cmd.OutOrStdout(), "✓ connected, probing every %s\n", interval)

			var poolErr error
			db.Watch(ctx, interval, func(err error) { poolErr = err })
			if poolErr != nil {
				return errors.WrapWithLog(ctx, a.log, poolErr, errors.GetErrorCode(poolErr), "database pool error",
					logging.Duration("interval", interval))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 10*time.Second, "probe interval")
	return cmd
}
