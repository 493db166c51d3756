package cmd

import (
	"context"
	"sync"
	"time"

	"cdp/pkg/metrics"
	"cdp/service/oracle"
	"cdp/service/vault"
	"cdp/worker"
	"cdp/worker/monitor"
	"cdp/worker/refresher"

	"github.com/drone/signal"
	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var _flag struct {
	refreshInterval time.Duration
	scanInterval    time.Duration
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "run the index refresher and vault monitor",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := signal.WithContext(cmd.Context())

		database := provideDatabase()
		defer database.Close()

		s := provideStores(database)
		prices := provideOracle()
		m := provideMetrics()
		vaults := provideVaultService(s, provideAccess(s), prices, provideBank()).WithMetrics(m)

		runWorkers(ctx, vaults, prices, m)
	},
}

func runWorkers(ctx context.Context, vaults *vault.Service, prices *oracle.Oracle, m *metrics.Metrics) {
	log := logger.FromContext(ctx)

	workers := []worker.Worker{
		refresher.New(vaults, _flag.refreshInterval),
		monitor.New(vaults, prices, m, _flag.scanInterval),
	}

	wg := sync.WaitGroup{}
	for _, w := range workers {
		wg.Add(1)

		go func(w worker.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Errorln("worker stopped")
			}
		}(w)
	}

	wg.Wait()
}

func init() {
	rootCmd.AddCommand(workerCmd)
	rootCmd.PersistentFlags().DurationVar(&_flag.refreshInterval, "refresh.interval", time.Minute, "interval between index refreshes")
	rootCmd.PersistentFlags().DurationVar(&_flag.scanInterval, "scan.interval", 15*time.Second, "interval between vault health scans")
}
