package submit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TipFloorData is the landed-tip percentile snapshot Jito's tip_floor
// endpoint returns, grounded field-for-field on original_source's
// arb/pipeline/uploader/jito.rs TipFloorData.
type TipFloorData struct {
	Time              string  `json:"time"`
	LandedTips25th    float64 `json:"landed_tips_25th_percentile"`
	LandedTips50th    float64 `json:"landed_tips_50th_percentile"`
	LandedTips75th    float64 `json:"landed_tips_75th_percentile"`
	LandedTips95th    float64 `json:"landed_tips_95th_percentile"`
	LandedTips99th    float64 `json:"landed_tips_99th_percentile"`
	EmaLandedTips50th float64 `json:"ema_landed_tips_50th_percentile"`
}

// Lamports returns the given percentile (25, 50, 75, 95, 99) converted from
// SOL to lamports; unknown percentiles fall back to the 75th, the default
// builders read per spec.md §4.8.
func (t TipFloorData) Lamports(percentile int) uint64 {
	sol := t.LandedTips75th
	switch percentile {
	case 25:
		sol = t.LandedTips25th
	case 50:
		sol = t.LandedTips50th
	case 75:
		sol = t.LandedTips75th
	case 95:
		sol = t.LandedTips95th
	case 99:
		sol = t.LandedTips99th
	}
	return uint64(sol * 1e9)
}

const jitoTipFloorURL = "https://bundles.jito.wtf/api/v1/bundles/tip_floor"

// DefaultTipFetchInterval matches the teacher's 30-second periodic_tip_fetch
// ticker.
const DefaultTipFetchInterval = 30 * time.Second

// TipFloorFetcher is the dedicated periodic task spec.md §4.8 describes:
// it maintains the latest landed-tip percentiles in a lock-protected slot.
type TipFloorFetcher struct {
	http     *http.Client
	url      string
	interval time.Duration
	logger   *logrus.Logger

	mu     sync.RWMutex
	latest *TipFloorData
	stop   chan struct{}
}

func NewTipFloorFetcher(logger *logrus.Logger, interval time.Duration) *TipFloorFetcher {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = DefaultTipFetchInterval
	}
	return &TipFloorFetcher{
		http:     &http.Client{Timeout: 10 * time.Second},
		url:      jitoTipFloorURL,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
	}
}

// Start runs the periodic fetch loop, grounded on ingress.Poller's ticker
// shape, until ctx is cancelled or Stop is called.
func (f *TipFloorFetcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	if err := f.fetch(ctx); err != nil {
		f.logger.WithError(err).Warn("initial tip-floor fetch failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.stop:
			return nil
		case <-ticker.C:
			if err := f.fetch(ctx); err != nil {
				f.logger.WithError(err).Warn("periodic tip-floor fetch failed")
			}
		}
	}
}

func (f *TipFloorFetcher) Stop() {
	close(f.stop)
}

func (f *TipFloorFetcher) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tip_floor: unexpected status %d", resp.StatusCode)
	}

	var rows []TipFloorData
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return fmt.Errorf("tip_floor: decode response: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("tip_floor: empty response array")
	}

	f.mu.Lock()
	f.latest = &rows[0]
	f.mu.Unlock()
	return nil
}

// Latest returns the most recently fetched snapshot, or false if none has
// landed yet.
func (f *TipFloorFetcher) Latest() (TipFloorData, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.latest == nil {
		return TipFloorData{}, false
	}
	return *f.latest, true
}
