package services

import (
	"context"
	"time"

	"github.com/brewcraft/restaurant-backend/cache"
	"github.com/brewcraft/restaurant-backend/hub"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/reservation"
	"github.com/brewcraft/restaurant-backend/utils"
	"github.com/go-co-op/gocron/v2"
)

// ReconcileMonitor periodically repairs table status drift and prunes the
// token blacklist.
type ReconcileMonitor struct {
	Svc      *reservation.Service
	Cache    *cache.Cache
	Hub      *hub.Hub
	Interval time.Duration

	scheduler gocron.Scheduler
	cancel    context.CancelFunc
}

func NewReconcileMonitor(svc *reservation.Service, c *cache.Cache, h *hub.Hub, interval time.Duration) *ReconcileMonitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ReconcileMonitor{Svc: svc, Cache: c, Hub: h, Interval: interval}
}

func (m *ReconcileMonitor) Start() error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := sched.NewJob(
		gocron.DurationJob(m.Interval),
		gocron.NewTask(func(ctx context.Context) {
			if _, err := m.RunOnce(ctx); err != nil {
				utils.ErrorLogger.Printf("Reconcile failed: %v", err)
			}
		}, ctx),
		gocron.WithName("reconcile-tables"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		cancel()
		return err
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			if n := utils.CleanupBlacklist(); n > 0 {
				utils.InfoLogger.Printf("Pruned %d expired tokens", n)
			}
		}),
		gocron.WithName("prune-token-blacklist"),
	); err != nil {
		cancel()
		return err
	}

	m.scheduler = sched
	m.cancel = cancel
	sched.Start()
	utils.InfoLogger.Printf("Reconcile monitor started, %d jobs, interval %s", len(sched.Jobs()), m.Interval)
	return nil
}

func (m *ReconcileMonitor) Stop() {
	if m.scheduler == nil {
		return
	}
	m.cancel()
	if err := m.scheduler.Shutdown(); err != nil {
		utils.ErrorLogger.Printf("Error stopping scheduler: %v", err)
	}
	m.scheduler = nil
}

// RunOnce reconciles now and publishes any corrections.
func (m *ReconcileMonitor) RunOnce(ctx context.Context) (reservation.ReconcileReport, error) {
	report, err := m.Svc.Reconcile(ctx)
	if err != nil {
		return report, err
	}
	if report.Changed() {
		m.Cache.InvalidateQuietly(ctx, cache.KeyTables+"*")
		if m.Hub != nil {
			m.Hub.Broadcast(hub.EventTableUpdate, report, models.RoleAdmin)
		}
	}
	return report, nil
}
