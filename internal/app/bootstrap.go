package app

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"SalaryHedge/internal/config"
	"SalaryHedge/internal/engine"
	"SalaryHedge/internal/model"
	"SalaryHedge/internal/notifier"
	"SalaryHedge/internal/observability"
	"SalaryHedge/internal/pricefeed"
	"SalaryHedge/internal/recorder"
	"SalaryHedge/internal/store"
)

// App holds the wired components.
type App struct {
	Config   *config.Config
	Store    *store.Store
	Feed     pricefeed.Feed
	Engine   *engine.Engine
	Recorder recorder.Recorder
	Notifier *notifier.TelegramNotifier // nil when Telegram is not configured
}

// Options tunes Bootstrap for the binary using it.
type Options struct {
	// Clock overrides wall-clock ledger time.
	Clock engine.Clock
	// Metrics enables the Prometheus collectors.
	Metrics bool
	// Recorder enables the SQLite audit trail.
	Recorder bool
}

// Bootstrap opens storage and builds the engine and its collaborators.
func Bootstrap(cfg *config.Config, opts Options) (*App, error) {
	if dir := filepath.Dir(cfg.Storage.Path); cfg.Storage.Backend != store.BackendMemory && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	kv, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	st := store.New(kv)
	log.Printf("[INFO] storage: %s at %s", cfg.Storage.Backend, cfg.Storage.Path)

	clock := opts.Clock
	if clock == nil {
		clock = engine.SystemClock{}
	}
	feed, err := NewFeed(cfg, clock.Now())
	if err != nil {
		st.Close()
		return nil, err
	}
	log.Printf("[INFO] oracle: %s (%s, identity %s)", feed.Name(), cfg.Network, cfg.Oracle.Identity)

	eng := engine.New(st, feed, NewResolver(cfg), clock)
	eng.SetAdmin(model.UserID(cfg.Admin))
	if opts.Metrics {
		eng.SetMetrics(observability.Engine())
	}

	a := &App{Config: cfg, Store: st, Feed: feed, Engine: eng, Recorder: recorder.NewNoopRecorder()}

	if opts.Recorder && cfg.Database.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			log.Printf("[WARN] create sqlite dir: %v", err)
		}
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		} else {
			a.Recorder = sr
		}
	}
	eng.SetRecorder(a.Recorder)

	if cfg.TelegramEnabled() {
		a.Notifier = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		a.Notifier.RateDecimals = cfg.Oracle.Decimals
		eng.SetAlerter(a.Notifier)
	}
	return a, nil
}

// NewResolver builds the currency allow-list. The Yahoo source ignores
// configured asset ids and uses FX tickers.
func NewResolver(cfg *config.Config) *pricefeed.StaticResolver {
	entries := make([]pricefeed.CurrencyAsset, 0, len(cfg.Currencies))
	for _, c := range cfg.Currencies {
		asset := pricefeed.Asset(c.Asset)
		if cfg.Oracle.Source == config.SourceYahoo {
			asset = pricefeed.YahooTicker(c.Code)
		}
		entries = append(entries, pricefeed.CurrencyAsset{Code: c.Code, Asset: asset})
	}
	return pricefeed.NewStaticResolver(entries)
}

// NewFeed builds the oracle client selected by cfg.Oracle.Source. now
// anchors fixtures given by age.
func NewFeed(cfg *config.Config, now uint64) (pricefeed.Feed, error) {
	switch cfg.Oracle.Source {
	case config.SourceHTTP:
		return pricefeed.NewHTTPFeed(cfg.Oracle.BaseURL, cfg.Oracle.Identity, cfg.Oracle.APIKey, cfg.Proxy, cfg.Oracle.RequestsPerSecond), nil
	case config.SourceYahoo:
		return pricefeed.NewYahooFeed(cfg.Proxy, cfg.Oracle.Decimals), nil
	case config.SourceManual:
		resolver := NewResolver(cfg)
		feed := pricefeed.NewManualFeed(cfg.Oracle.Decimals)
		for i, f := range cfg.Oracle.Fixtures {
			asset, ok := resolver.Resolve(f.Currency)
			if !ok {
				return nil, fmt.Errorf("oracle.fixtures[%d]: currency %q not in allow-list", i, f.Currency)
			}
			price, err := model.ParseAmount(f.Price)
			if err != nil {
				return nil, fmt.Errorf("oracle.fixtures[%d]: %w", i, err)
			}
			ts := f.Timestamp
			if ts == 0 {
				if f.AgeSeconds > now {
					return nil, fmt.Errorf("oracle.fixtures[%d]: age reaches before ledger time 0", i)
				}
				ts = now - f.AgeSeconds
			}
			feed.Set(asset, ts, price)
		}
		return feed, nil
	default:
		return nil, fmt.Errorf("unknown oracle source %q", cfg.Oracle.Source)
	}
}

// Close releases the recorder and the store.
func (a *App) Close() error {
	if err := a.Recorder.Close(); err != nil {
		log.Printf("[WARN] close recorder: %v", err)
	}
	return a.Store.Close()
}
