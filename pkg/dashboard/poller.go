package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/iot-pressure-service/pkg/common"
	"liyu1981.xyz/iot-pressure-service/pkg/models"
)

const DefaultPollInterval = 30 * time.Second

type Fetcher interface {
	LatestData(ctx context.Context) ([]models.Reading, error)
	Alerts(ctx context.Context) ([]models.Alert, error)
}

type Snapshot struct {
	Latest    []models.Reading
	Alerts    []models.Alert
	FetchedAt time.Time
	// LastError is the failure of the most recent refresh, the data above
	// stays from the last good one.
	LastError error
}

type Poller struct {
	fetcher  Fetcher
	interval time.Duration
	onUpdate func(Snapshot)
	logger   *zap.Logger

	mu       sync.RWMutex
	snapshot Snapshot
}

func NewPoller(fetcher Fetcher, interval time.Duration, onUpdate func(Snapshot)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		onUpdate: onUpdate,
		logger:   common.GetLoggerWith(common.LoggerNameDashboard),
	}
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Refresh fetches both lists. Either both are replaced or neither is.
func (p *Poller) Refresh(ctx context.Context) Snapshot {
	latest, err := p.fetcher.LatestData(ctx)
	var alerts []models.Alert
	if err == nil {
		alerts, err = p.fetcher.Alerts(ctx)
	}

	p.mu.Lock()
	if err != nil {
		p.logger.Warn("Refresh failed, keeping previous data", zap.Error(err))
		p.snapshot.LastError = err
	} else {
		p.snapshot = Snapshot{Latest: latest, Alerts: alerts, FetchedAt: time.Now()}
	}
	snap := p.snapshot
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(snap)
	}
	return snap
}

// Run refreshes immediately and then on every tick until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}
