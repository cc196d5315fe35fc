package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront.GO/cron"
	"storefront.GO/cron/jobs"
)

var jobName string

var cronStartCmd = &cobra.Command{
	Use:   "cron:start",
	Short: "Start the cron scheduler or run a single job by name",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.Config.Catalog
		jobs.RegisterStockRefresh(a.Store, cfg.RefreshVendors, cfg.StockRefreshSchedule, a.Logger)

		if jobName != "" {
			name := strings.ToLower(jobName)
			j, ok := cron.Lookup(name)
			if !ok {
				return fmt.Errorf("unknown job: %s", jobName)
			}
			a.Logger.Info("running cron job", zap.String("job", name), zap.Strings("args", args))
			j.Run(args...)
			return nil
		}

		c, err := cron.StartCron(a.Logger)
		if err != nil {
			return err
		}
		a.Logger.Info("cron scheduler started, press Ctrl+C to exit")
		<-ctx.Done()
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	cronStartCmd.Flags().StringVarP(&jobName, "job", "j", "", "Run a single cron job by name and exit")
	rootCmd.AddCommand(cronStartCmd)
}
