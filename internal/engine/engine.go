package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"SalaryHedge/internal/calculator"
	"SalaryHedge/internal/model"
	"SalaryHedge/internal/observability"
	"SalaryHedge/internal/pricefeed"
	"SalaryHedge/internal/recorder"
	"SalaryHedge/internal/store"
	"SalaryHedge/internal/strategy"
)

// Alerter is notified after a conversion has been committed. It runs on the
// caller's context and must return when that context is done.
type Alerter interface {
	ConversionAlert(ctx context.Context, cfg model.UserConfig, evt model.ConversionEvent) error
}

// Engine runs the hedge operations. Calls are serialized so that each one
// reads and writes a consistent view of the store.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	feed    pricefeed.Feed
	assets  pricefeed.Resolver
	clock   Clock
	rec     recorder.Recorder
	alerter Alerter
	admin   model.UserID
	metrics *observability.EngineMetrics
}

// New creates an Engine. A nil clock means wall-clock time.
func New(st *store.Store, feed pricefeed.Feed, assets pricefeed.Resolver, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{
		store:  st,
		feed:   feed,
		assets: assets,
		clock:  clock,
		rec:    recorder.NewNoopRecorder(),
	}
}

// SetRecorder installs the audit recorder.
func (e *Engine) SetRecorder(r recorder.Recorder) {
	if r == nil {
		r = recorder.NewNoopRecorder()
	}
	e.rec = r
}

// SetAlerter installs the conversion alerter.
func (e *Engine) SetAlerter(a Alerter) { e.alerter = a }

// SetAdmin names the identity allowed to remove any user.
func (e *Engine) SetAdmin(id model.UserID) { e.admin = id }

// SetMetrics installs the Prometheus collectors. Nil disables them.
func (e *Engine) SetMetrics(m *observability.EngineMetrics) { e.metrics = m }

// Now returns the current ledger time of the engine's clock.
func (e *Engine) Now() uint64 { return e.clock.Now() }

// Setup creates or replaces the configuration of user. Replacing resets
// last_conversion and total_protected; the history is left alone.
func (e *Engine) Setup(ctx context.Context, auth Auth, user model.UserID, currency string, targetPercentage uint32, thresholdBP int64) (err error) {
	defer func() { e.metrics.Operation("setup", outcome(err)) }()

	if err := auth.Require(user); err != nil {
		return err
	}
	if targetPercentage > model.MaxTargetPercentage {
		return fmt.Errorf("%w: got %d", ErrInvalidPercentage, targetPercentage)
	}
	if thresholdBP < model.MinThresholdBP || thresholdBP > model.MaxThresholdBP {
		return fmt.Errorf("%w: got %d", ErrInvalidThreshold, thresholdBP)
	}
	if _, ok := e.assets.Resolve(currency); !ok {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	cfg := model.UserConfig{
		User:             user,
		LocalCurrency:    currency,
		TargetPercentage: targetPercentage,
		ThresholdBP:      thresholdBP,
		TotalProtected:   model.NewAmount(0),
	}

	e.mu.Lock()
	err = e.store.PutConfig(cfg)
	now := e.clock.Now()
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	log.Printf("[INFO] setup %s: currency=%s target=%d%% threshold=%dbp", user, currency, targetPercentage, thresholdBP)
	if err := e.rec.RecordSetup(&recorder.SetupEvent{
		User:             user,
		Currency:         currency,
		TargetPercentage: targetPercentage,
		ThresholdBP:      thresholdBP,
		Timestamp:        now,
	}); err != nil {
		log.Printf("[ERROR] record setup for %s: %v", user, err)
	}
	return nil
}

// ProcessSalary takes target_percentage of amount and converts it when the
// local currency lost at least threshold_bp over the past week. Inside the
// cooldown window no oracle call is made. The configuration is written back
// on every successful call.
func (e *Engine) ProcessSalary(ctx context.Context, auth Auth, user model.UserID, amount model.Amount) (out model.SalaryOutcome, err error) {
	defer func() { e.metrics.Operation("process_salary", outcome(err)) }()

	if err := auth.Require(user); err != nil {
		return out, err
	}

	e.mu.Lock()
	cfg, out, now, err := e.processSalary(ctx, user, amount)
	e.mu.Unlock()
	if err != nil {
		return model.SalaryOutcome{}, err
	}

	e.metrics.SalaryRun(string(out.Reason))
	log.Printf("[INFO] salary %s: amount=%s reason=%s devaluation=%dbp", user, amount, out.Reason, out.DevaluationBP)
	if err := e.rec.RecordSalary(&recorder.SalaryEvent{
		User:             user,
		Currency:         cfg.LocalCurrency,
		Amount:           amount,
		ConversionAmount: out.ConversionAmount,
		DevaluationBP:    out.DevaluationBP,
		Reason:           out.Reason,
		Timestamp:        now,
	}); err != nil {
		log.Printf("[ERROR] record salary for %s: %v", user, err)
	}
	if out.Event != nil {
		e.afterConversion(ctx, cfg, *out.Event)
	}
	return out, nil
}

func (e *Engine) processSalary(ctx context.Context, user model.UserID, amount model.Amount) (model.UserConfig, model.SalaryOutcome, uint64, error) {
	var out model.SalaryOutcome

	cfg, err := e.loadConfig(user)
	if err != nil {
		return cfg, out, 0, err
	}
	if amount.Sign() < 0 {
		return cfg, out, 0, fmt.Errorf("%w: salary %s", ErrInvalidAmount, amount)
	}
	now := e.clock.Now()

	// Only a firing trigger needs the amount; a salary too large to scale
	// still completes as a no-op otherwise.
	conv, convErr := conversionAmount(amount, cfg.TargetPercentage)
	out.ConversionAmount = conv

	next := cfg
	var evt *model.ConversionEvent
	if strategy.InCooldown(cfg, now) {
		d := strategy.CooldownDecision()
		out.Reason = d.Reason
	} else {
		asset, err := e.asset(cfg)
		if err != nil {
			return cfg, out, 0, err
		}
		current, err := e.latestPrice(ctx, asset)
		if err != nil {
			return cfg, out, 0, err
		}
		// Outside the cooldown now >= LookBack, so this cannot underflow.
		weekAgo, err := e.priceAt(ctx, asset, now-strategy.LookBack)
		if err != nil {
			return cfg, out, 0, err
		}

		d := strategy.Evaluate(cfg, weekAgo, current)
		out.DevaluationBP = d.DevaluationBP
		out.Reason = d.Reason
		if d.Fire {
			if convErr != nil {
				return cfg, model.SalaryOutcome{}, 0, overflow("conversion amount", convErr)
			}
			n, ev, err := e.prepareConversion(ctx, cfg, asset, conv, now, model.TriggerAutomatic)
			if err != nil {
				return cfg, model.SalaryOutcome{}, 0, err
			}
			next, evt = n, &ev
			out.Triggered = true
			out.Event = evt
		}
	}

	if err := e.store.Commit(next, evt); err != nil {
		return cfg, model.SalaryOutcome{}, 0, fmt.Errorf("commit salary: %w", err)
	}
	return next, out, now, nil
}

// ConvertNow converts exactly amount at the latest price, ignoring the
// cooldown and the threshold.
func (e *Engine) ConvertNow(ctx context.Context, auth Auth, user model.UserID, amount model.Amount) (evt model.ConversionEvent, err error) {
	defer func() { e.metrics.Operation("convert_now", outcome(err)) }()

	if err := auth.Require(user); err != nil {
		return evt, err
	}

	e.mu.Lock()
	cfg, evt, err := e.convertNow(ctx, user, amount)
	e.mu.Unlock()
	if err != nil {
		return model.ConversionEvent{}, err
	}

	log.Printf("[INFO] manual conversion %s: local=%s usd=%s rate=%s", user, evt.LocalAmount, evt.USDAmount, evt.ExchangeRate)
	e.afterConversion(ctx, cfg, evt)
	return evt, nil
}

func (e *Engine) convertNow(ctx context.Context, user model.UserID, amount model.Amount) (model.UserConfig, model.ConversionEvent, error) {
	cfg, err := e.loadConfig(user)
	if err != nil {
		return cfg, model.ConversionEvent{}, err
	}
	asset, err := e.asset(cfg)
	if err != nil {
		return cfg, model.ConversionEvent{}, err
	}
	next, evt, err := e.prepareConversion(ctx, cfg, asset, amount, e.clock.Now(), model.TriggerManual)
	if err != nil {
		return cfg, model.ConversionEvent{}, err
	}
	if err := e.store.Commit(next, &evt); err != nil {
		return cfg, model.ConversionEvent{}, fmt.Errorf("commit conversion: %w", err)
	}
	return next, evt, nil
}

func conversionAmount(amount model.Amount, pct uint32) (model.Amount, error) {
	scaled, err := amount.Mul(model.NewAmount(int64(pct)))
	if err != nil {
		return model.Amount{}, err
	}
	return scaled.Quo(model.NewAmount(100))
}

// prepareConversion computes the conversion of amount and the configuration
// that results from it. Nothing is written; cfg is not modified.
func (e *Engine) prepareConversion(ctx context.Context, cfg model.UserConfig, asset pricefeed.Asset, amount model.Amount, now uint64, trigger model.TriggerType) (model.UserConfig, model.ConversionEvent, error) {
	if amount.Sign() < 0 {
		return cfg, model.ConversionEvent{}, fmt.Errorf("%w: conversion %s", ErrInvalidAmount, amount)
	}
	current, err := e.latestPrice(ctx, asset)
	if err != nil {
		return cfg, model.ConversionEvent{}, err
	}
	dec, err := e.decimals(ctx)
	if err != nil {
		return cfg, model.ConversionEvent{}, err
	}

	scale, err := model.Pow10(dec)
	if err != nil {
		return cfg, model.ConversionEvent{}, overflow(fmt.Sprintf("10^%d", dec), err)
	}
	num, err := amount.Mul(scale)
	if err != nil {
		return cfg, model.ConversionEvent{}, overflow("usd amount", err)
	}
	usd, err := num.Quo(current.Price)
	if err != nil {
		return cfg, model.ConversionEvent{}, overflow("usd amount", err)
	}
	total, err := cfg.TotalProtected.Add(usd)
	if err != nil {
		return cfg, model.ConversionEvent{}, overflow("total protected", err)
	}

	next := cfg
	next.TotalProtected = total
	next.LastConversion = now
	evt := model.ConversionEvent{
		Timestamp:    now,
		LocalAmount:  amount,
		USDAmount:    usd,
		ExchangeRate: current.Price,
		Trigger:      trigger,
	}
	return next, evt, nil
}

func (e *Engine) afterConversion(ctx context.Context, cfg model.UserConfig, evt model.ConversionEvent) {
	e.metrics.Conversion(cfg.LocalCurrency, string(evt.Trigger))
	if err := e.rec.RecordConversion(&recorder.ConversionRecord{
		User:           cfg.User,
		Currency:       cfg.LocalCurrency,
		Event:          evt,
		TotalProtected: cfg.TotalProtected,
	}); err != nil {
		log.Printf("[ERROR] record conversion for %s: %v", cfg.User, err)
	}
	if e.alerter != nil {
		if err := e.alerter.ConversionAlert(ctx, cfg, evt); err != nil {
			log.Printf("[ERROR] conversion alert for %s: %v", cfg.User, err)
		}
	}
}

// Config returns the stored configuration of user.
func (e *Engine) Config(_ context.Context, user model.UserID) (cfg model.UserConfig, err error) {
	defer func() { e.metrics.Operation("get_config", outcome(err)) }()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadConfig(user)
}

// Metrics reports the devaluation of the user's currency over the last
// daysBack days together with the protected total. It writes nothing.
func (e *Engine) Metrics(ctx context.Context, user model.UserID, daysBack uint32) (m model.ProtectionMetrics, err error) {
	defer func() { e.metrics.Operation("get_metrics", outcome(err)) }()

	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.loadConfig(user)
	if err != nil {
		return m, err
	}
	asset, err := e.asset(cfg)
	if err != nil {
		return m, err
	}
	start, ok := calculator.WindowStart(e.clock.Now(), daysBack)
	if !ok {
		return m, fmt.Errorf("%w: %d-day window starts before ledger time 0", ErrNoPrice, daysBack)
	}
	past, err := e.priceAt(ctx, asset, start)
	if err != nil {
		return m, err
	}
	current, err := e.latestPrice(ctx, asset)
	if err != nil {
		return m, err
	}

	return model.ProtectionMetrics{
		TotalProtected:        cfg.TotalProtected,
		CurrencyDevaluationBP: calculator.DevaluationBP(past.Price, current.Price),
		DaysTracked:           daysBack,
		CurrentRate:           current.Price,
	}, nil
}

// SupportedCurrencies returns the allow-list, in configuration order.
func (e *Engine) SupportedCurrencies() []string {
	e.metrics.Operation("get_supported_currencies", outcome(nil))
	return e.assets.Currencies()
}

// History returns the user's conversions, oldest first. A user without
// history gets an empty list.
func (e *Engine) History(_ context.Context, user model.UserID) (events []model.ConversionEvent, err error) {
	defer func() { e.metrics.Operation("get_history", outcome(err)) }()

	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	events, err = e.store.History(user)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return events, nil
}

// Exists reports whether user has a configuration.
func (e *Engine) Exists(_ context.Context, user model.UserID) (bool, error) {
	if user.Validate() != nil {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.HasConfig(user)
}

// Remove deletes the configuration and the history of user together. The
// owner or the administrator may call it.
func (e *Engine) Remove(_ context.Context, auth Auth, user model.UserID) (err error) {
	defer func() { e.metrics.Operation("remove", outcome(err)) }()

	if err := auth.Require(user); err != nil {
		if e.admin == "" || auth.Caller() != e.admin {
			return err
		}
	}

	e.mu.Lock()
	if _, err = e.loadConfig(user); err == nil {
		if err = e.store.Remove(user); err != nil {
			err = fmt.Errorf("remove %s: %w", user, err)
		}
	}
	now := e.clock.Now()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	log.Printf("[INFO] removed %s (by %s)", user, auth.Caller())
	if err := e.rec.RecordRemoval(&recorder.RemovalEvent{User: user, By: auth.Caller(), Timestamp: now}); err != nil {
		log.Printf("[ERROR] record removal of %s: %v", user, err)
	}
	return nil
}

func (e *Engine) loadConfig(user model.UserID) (model.UserConfig, error) {
	if err := user.Validate(); err != nil {
		return model.UserConfig{}, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	cfg, err := e.store.Config(user)
	if errors.Is(err, store.ErrNotFound) {
		return cfg, fmt.Errorf("%w: %s", ErrUserNotFound, user)
	}
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// asset resolves the oracle asset of cfg. A currency dropped from the
// allow-list after setup can no longer be priced.
func (e *Engine) asset(cfg model.UserConfig) (pricefeed.Asset, error) {
	a, ok := e.assets.Resolve(cfg.LocalCurrency)
	if !ok {
		return "", fmt.Errorf("%w: %q is no longer supported", ErrInvalidCurrency, cfg.LocalCurrency)
	}
	return a, nil
}

func (e *Engine) latestPrice(ctx context.Context, asset pricefeed.Asset) (model.PriceData, error) {
	pd, ok, err := e.feed.LatestPrice(ctx, asset)
	return e.checkPrice("latest_price", asset, pd, ok, err)
}

func (e *Engine) priceAt(ctx context.Context, asset pricefeed.Asset, ts uint64) (model.PriceData, error) {
	pd, ok, err := e.feed.PriceAt(ctx, asset, ts)
	return e.checkPrice("price_at", asset, pd, ok, err)
}

// checkPrice turns every unusable oracle answer into NoPrice. A price that
// is not positive counts as absent.
func (e *Engine) checkPrice(call string, asset pricefeed.Asset, pd model.PriceData, ok bool, err error) (model.PriceData, error) {
	switch {
	case err != nil:
		e.metrics.OracleRead(call, "error")
		log.Printf("[WARN] oracle %s %s via %s: %v", call, asset, e.feed.Name(), err)
		return pd, fmt.Errorf("%w: %s %s: %w", ErrNoPrice, call, asset, err)
	case !ok || !pd.Valid():
		e.metrics.OracleRead(call, "absent")
		return pd, fmt.Errorf("%w: %s %s", ErrNoPrice, call, asset)
	}
	e.metrics.OracleRead(call, "ok")
	return pd, nil
}

func (e *Engine) decimals(ctx context.Context) (uint32, error) {
	dec, err := e.feed.Decimals(ctx)
	if err != nil {
		e.metrics.OracleRead("decimals", "error")
		return 0, fmt.Errorf("%w: decimals: %w", ErrNoPrice, err)
	}
	e.metrics.OracleRead("decimals", "ok")
	return dec, nil
}

func overflow(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOverflow, what, err)
}
