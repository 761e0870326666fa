package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SalaryHedge/internal/app"
	"SalaryHedge/internal/config"
	"SalaryHedge/internal/logging"
	"SalaryHedge/internal/model"
	"SalaryHedge/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] SalaryHedge starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	logFile := logging.Setup(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer logFile.Close()

	a, err := app.Bootstrap(cfg, app.Options{Metrics: true, Recorder: true})
	if err != nil {
		log.Fatalf("[FATAL] bootstrap: %v", err)
	}
	defer a.Close()

	payroll, err := payrollJobs(cfg)
	if err != nil {
		log.Fatalf("[FATAL] payroll: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sender scheduler.Sender
	if a.Notifier != nil {
		sender = a.Notifier
	} else {
		log.Println("[WARN] Telegram not configured, reports are only logged")
	}

	sched := scheduler.NewScheduler(ctx, a.Engine, sender, a.Recorder)
	sched.MetricsDays = cfg.Schedule.MetricsDays
	sched.RateDecimals = cfg.Oracle.Decimals
	for _, u := range cfg.Watch {
		sched.Watch = append(sched.Watch, model.UserID(u))
	}
	if err := sched.RegisterAll(cfg.Schedule.MetricsCron, payroll); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if a.Notifier != nil {
		go a.Notifier.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("[INFO] metrics listening on %s", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] metrics server: %v", err)
			}
		}()
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, sending metrics report now")
		go sched.RunMetricsNow()
	}

	log.Println("[INFO] SalaryHedge is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if metricsSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] metrics shutdown: %v", err)
		}
	}
	log.Println("[INFO] SalaryHedge stopped")
}

func payrollJobs(cfg *config.Config) ([]scheduler.Payroll, error) {
	jobs := make([]scheduler.Payroll, 0, len(cfg.Payroll))
	for _, p := range cfg.Payroll {
		amount, err := model.ParseAmount(p.Amount)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, scheduler.Payroll{User: model.UserID(p.User), Amount: amount, Cron: p.Cron})
	}
	return jobs, nil
}
