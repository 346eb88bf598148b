package job

import (
	"context"
	"log/slog"
	"sync"

	"github.com/maheshrc27/fediplan/internal/models"
	"github.com/maheshrc27/fediplan/internal/repository"
	"github.com/maheshrc27/fediplan/internal/service"
)

// CacheRefreshJob resyncs the scheduled-post cache of every connected
// account against the instance. Statuses that were published or deleted
// out-of-band fall out of the cache here.
type CacheRefreshJob struct {
	ar repository.FediAccountRepository
	ss service.ScheduleService
}

func NewCacheRefreshJob(ar repository.FediAccountRepository, ss service.ScheduleService) *CacheRefreshJob {
	return &CacheRefreshJob{
		ar: ar,
		ss: ss,
	}
}

func (c *CacheRefreshJob) RefreshCaches() {
	ctx := context.Background()

	accounts, err := c.ar.ListAll(ctx)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, acc := range accounts {

		wg.Add(1)
		semaphore <- struct{}{}

		go func(acc *models.FediAccount) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if err := c.ss.Refresh(ctx, acc); err != nil {
				slog.Info("Unable to refresh scheduled post cache", "account", acc.ID, "error", err.Error())
			}
		}(acc)
	}

	wg.Wait()
}
