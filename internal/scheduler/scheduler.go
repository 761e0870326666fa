package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"SalaryHedge/internal/engine"
	"SalaryHedge/internal/model"
	"SalaryHedge/internal/notifier"
	"SalaryHedge/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Sender delivers chat messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Payroll runs ProcessSalary for User on the Cron schedule. The operator
// who configured the entry acts as the user's signer.
type Payroll struct {
	User   model.UserID
	Amount model.Amount
	Cron   string
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron         *cron.Cron
	Engine       *engine.Engine
	Notifier     Sender
	Recorder     recorder.Recorder
	Ctx          context.Context
	Watch        []model.UserID
	MetricsDays  uint32
	RateDecimals uint32
}

// NewScheduler creates a new Scheduler. sender may be nil when no chat is
// configured.
func NewScheduler(ctx context.Context, eng *engine.Engine, sender Sender, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Engine:      eng,
		Notifier:    sender,
		Recorder:    rec,
		Ctx:         ctx,
		MetricsDays: 7,
	}
}

// RegisterAll registers the metrics report and one job per payroll entry.
func (s *Scheduler) RegisterAll(metricsCron string, payroll []Payroll) error {
	if _, err := s.Cron.AddFunc(metricsCron, s.metricsTask); err != nil {
		return fmt.Errorf("register metrics task: %w", err)
	}
	for _, p := range payroll {
		if _, err := s.Cron.AddFunc(p.Cron, func() { s.payrollTask(p) }); err != nil {
			return fmt.Errorf("register payroll for %s: %w", p.User, err)
		}
		log.Printf("[INFO] payroll registered: user=%s amount=%s cron=%q", p.User, p.Amount, p.Cron)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunMetricsNow executes the metrics report immediately.
func (s *Scheduler) RunMetricsNow() {
	s.metricsTask()
}

func (s *Scheduler) metricsTask() {
	log.Printf("[INFO] running metrics report for %d users", len(s.Watch))
	for _, user := range s.Watch {
		report, err := s.metricsReport(s.Ctx, user, s.MetricsDays)
		if err != nil {
			log.Printf("[ERROR] metrics for %s: %v", user, err)
			s.trySend(fmt.Sprintf("❌ Protection report for %s failed: %s", user, describe(err)))
			continue
		}
		s.trySend(report)
	}
}

// metricsReport computes, records and formats the protection report of user.
func (s *Scheduler) metricsReport(ctx context.Context, user model.UserID, days uint32) (string, error) {
	cfg, err := s.Engine.Config(ctx, user)
	if err != nil {
		return "", err
	}
	m, err := s.Engine.Metrics(ctx, user, days)
	if err != nil {
		return "", err
	}
	if err := s.Recorder.RecordMetrics(&recorder.MetricsSnapshot{
		User:      user,
		Currency:  cfg.LocalCurrency,
		Metrics:   m,
		Timestamp: s.Engine.Now(),
	}); err != nil {
		log.Printf("[ERROR] record metrics for %s: %v", user, err)
	}
	return notifier.FormatMetrics(cfg, m, s.RateDecimals), nil
}

func (s *Scheduler) payrollTask(p Payroll) {
	log.Printf("[INFO] running payroll for %s", p.User)
	out, err := s.Engine.ProcessSalary(s.Ctx, engine.Authenticated(p.User), p.User, p.Amount)
	if err != nil {
		log.Printf("[ERROR] payroll for %s: %v", p.User, err)
		s.trySend(fmt.Sprintf("❌ Salary run for %s failed: %s", p.User, describe(err)))
		return
	}
	cfg, err := s.Engine.Config(s.Ctx, p.User)
	if err != nil {
		log.Printf("[ERROR] payroll config for %s: %v", p.User, err)
		return
	}
	// Conversions are announced by the engine's alerter.
	if !out.Triggered {
		s.trySend(notifier.FormatSalaryOutcome(cfg, p.Amount, out))
	}
}

const helpText = "Available commands:\n" +
	"• /metrics &lt;user&gt; [days]\n" +
	"• /config &lt;user&gt;\n" +
	"• /history &lt;user&gt; [count]\n" +
	"• /currencies\n" +
	"• /report"

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "/metrics":
		if len(args) == 0 {
			return "Usage: /metrics &lt;user&gt; [days]"
		}
		days := s.MetricsDays
		if len(args) > 1 {
			n, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Sprintf("❌ Invalid day count %q", args[1])
			}
			days = uint32(n)
		}
		report, err := s.metricsReport(ctx, model.UserID(args[0]), days)
		if err != nil {
			return "❌ " + describe(err)
		}
		return report
	case "/config":
		if len(args) == 0 {
			return "Usage: /config &lt;user&gt;"
		}
		cfg, err := s.Engine.Config(ctx, model.UserID(args[0]))
		if err != nil {
			return "❌ " + describe(err)
		}
		return notifier.FormatConfig(cfg)
	case "/history":
		if len(args) == 0 {
			return "Usage: /history &lt;user&gt; [count]"
		}
		limit := 10
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Sprintf("❌ Invalid count %q", args[1])
			}
			limit = n
		}
		user := model.UserID(args[0])
		cfg, err := s.Engine.Config(ctx, user)
		if err != nil {
			return "❌ " + describe(err)
		}
		events, err := s.Engine.History(ctx, user)
		if err != nil {
			return "❌ " + describe(err)
		}
		return notifier.FormatHistory(cfg, events, limit)
	case "/currencies":
		return notifier.FormatCurrencies(s.Engine.SupportedCurrencies())
	case "/report":
		s.metricsTask()
		return ""
	default:
		return helpText
	}
}

// describe names the engine failure behind err for chat replies.
func describe(err error) string {
	switch engine.CodeOf(err) {
	case engine.CodeUserNotFound:
		return "user is not configured"
	case engine.CodeNoPrice:
		return "the oracle has no price right now, try again later"
	case 0:
		return "internal error"
	default:
		return engine.CodeOf(err).String()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
