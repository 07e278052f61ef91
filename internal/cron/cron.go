package cron

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v6"
	cronv3 "github.com/robfig/cron/v3"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/leaderelection"
	"k8s.io/client-go/tools/leaderelection/resourcelock"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/interfaces"
	cron_config "github.com/customeros/cardstack/internal/cron/config"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/metrics"
	"github.com/customeros/cardstack/internal/tracing"
)

const (
	// GroupOutreach serialises jobs that read the history store
	GroupOutreach = "outreach"

	// LeaseDuration is how long a lease lasts before needing renewal
	LeaseDuration = 15 * time.Second
	// RenewDeadline is how long a leader has to renew its lease
	RenewDeadline = 10 * time.Second
	// RetryPeriod is how long to wait between leadership attempts
	RetryPeriod = 2 * time.Second
)

var jobLocks = struct {
	sync.Mutex
	locks map[string]*sync.Mutex
}{
	locks: map[string]*sync.Mutex{
		GroupOutreach: new(sync.Mutex),
	},
}

type CronManager struct {
	cfg         *config.Config
	log         logger.Logger
	cron        *cronv3.Cron
	k8s         kubernetes.Interface
	stopCh      chan struct{}
	jobIDs      map[string]cronv3.EntryID
	profiles    interfaces.TenantProfileRepository
	quota       interfaces.QuotaService
	mailMetrics interfaces.MailMetricsProvider
}

func NewCronManager(cfg *config.Config, log logger.Logger, k8s kubernetes.Interface, profiles interfaces.TenantProfileRepository, quota interfaces.QuotaService, mailMetrics interfaces.MailMetricsProvider) *CronManager {
	return &CronManager{
		cfg:         cfg,
		log:         log,
		k8s:         k8s,
		stopCh:      make(chan struct{}),
		jobIDs:      make(map[string]cronv3.EntryID),
		profiles:    profiles,
		quota:       quota,
		mailMetrics: mailMetrics,
	}
}

// Start runs the scheduler on the elected leader only.
// Without a k8s client it starts in local mode without leader election.
func (cm *CronManager) Start(podName, namespace string) error {
	if cm.k8s == nil || os.Getenv("LOCAL_DEV") == "true" {
		cm.log.Info("Starting cron manager in local mode")
		cm.StartCron()
		return nil
	}

	lock := &resourcelock.LeaseLock{
		LeaseMeta: metav1.ObjectMeta{
			Name:      "cardstack-cron-leader",
			Namespace: namespace,
		},
		Client: cm.k8s.CoordinationV1(),
		LockConfig: resourcelock.ResourceLockConfig{
			Identity: podName,
		},
	}

	errCh := make(chan error, 1)

	go func() {
		le, err := leaderelection.NewLeaderElector(leaderelection.LeaderElectionConfig{
			Lock:            lock,
			ReleaseOnCancel: true,
			LeaseDuration:   LeaseDuration,
			RenewDeadline:   RenewDeadline,
			RetryPeriod:     RetryPeriod,
			Callbacks: leaderelection.LeaderCallbacks{
				OnStartedLeading: func(ctx context.Context) {
					cm.StartCron()
				},
				OnStoppedLeading: func() {
					cm.log.Info("Leader lost - stopping crons")
					cm.Stop()
				},
				OnNewLeader: func(identity string) {
					cm.log.Infof("New leader elected: %s", identity)
				},
			},
		})
		if err != nil {
			errCh <- err
			return
		}
		le.Run(context.Background())
	}()

	select {
	case err := <-errCh:
		cm.log.Warnf("Leader election failed, falling back to local mode: %v", err)
		cm.StartCron()
	case <-time.After(5 * time.Second):
	}

	return nil
}

// Stop waits for running jobs to finish
func (cm *CronManager) Stop() {
	if cm.cron != nil {
		cm.log.Info("Stopping cron manager")
		ctx := cm.cron.Stop()
		<-ctx.Done()
	}
	close(cm.stopCh)
}

func (cm *CronManager) registerJobs(c *cronv3.Cron) {
	var cronConfig cron_config.Config
	if err := env.Parse(&cronConfig); err != nil {
		cm.log.Fatalf("Failed to parse cron config from environment: %v", err)
	}

	if cronConfig.CronScheduleHeartbeat != "" {
		podName := os.Getenv("POD_NAME")
		if podName == "" {
			podName = "local"
		}
		cm.addJob(c, "heartbeat", cronConfig.CronScheduleHeartbeat, func() {
			cm.log.Infof("Cron heartbeat from pod: %s", podName)
		})
	}

	if cronConfig.CronScheduleMonthlyUsage != "" && cm.profiles != nil && cm.quota != nil {
		cm.addJob(c, "monthly_usage", cronConfig.CronScheduleMonthlyUsage, func() {
			jobLocks.locks[GroupOutreach].Lock()
			defer jobLocks.locks[GroupOutreach].Unlock()
			cm.reportMonthlyUsage(context.Background())
		})
	}

	if cronConfig.CronScheduleHostedMailMetrics != "" && cm.mailMetrics != nil {
		cm.addJob(c, "hosted_mail_metrics", cronConfig.CronScheduleHostedMailMetrics, func() {
			cm.snapshotHostedMailMetrics(context.Background())
		})
	}
}

func (cm *CronManager) addJob(c *cronv3.Cron, name, schedule string, job func()) {
	id, err := c.AddFunc(schedule, func() {
		defer tracing.RecoverAndLogToJaeger(cm.log)
		job()
	})
	if err != nil {
		cm.log.Fatalf("Could not add %s cron job: %v", name, err)
	}
	cm.jobIDs[name] = id
	cm.log.Infof("Registered %s job with schedule: %s", name, schedule)
}

// StartCron creates the scheduler with seconds precision and starts it
func (cm *CronManager) StartCron() {
	cm.log.Info("Starting cron manager")
	cronOptions := []cronv3.Option{
		cronv3.WithSeconds(),
		cronv3.WithChain(
			cronv3.SkipIfStillRunning(cronv3.DefaultLogger),
			cronv3.Recover(cronv3.DefaultLogger),
		),
	}
	c := cronv3.New(cronOptions...)
	cm.registerJobs(c)
	c.Start()
	cm.cron = c
}

// reportMonthlyUsage refreshes the per-tenant usage gauge from the history store.
func (cm *CronManager) reportMonthlyUsage(ctx context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.reportMonthlyUsage")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	profiles, err := cm.profiles.List(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Errorf("Failed to list tenant profiles: %v", err)
		return
	}

	for _, profile := range profiles {
		sent, err := cm.quota.MonthlyUsage(ctx, profile.Tenant)
		if err != nil {
			tracing.TraceErr(span, err)
			cm.log.Errorf("Failed to count monthly usage for tenant %s: %v", profile.Tenant, err)
			continue
		}
		metrics.SetMonthlyUsage(profile.Tenant, sent)
		if sent >= int64(profile.Ceiling()) {
			cm.log.Warnf("Tenant %s reached its monthly limit: %d/%d", profile.Tenant, sent, profile.Ceiling())
		}
	}
	span.LogKV("tenants", len(profiles))
}

func (cm *CronManager) snapshotHostedMailMetrics(ctx context.Context) {
	span, ctx := tracing.StartTracerSpan(ctx, "CronManager.snapshotHostedMailMetrics")
	defer span.Finish()
	tracing.TagComponentCronJob(span)

	snapshot, err := cm.mailMetrics.Metrics(ctx)
	if err != nil {
		tracing.TraceErr(span, err)
		cm.log.Warnf("Failed to fetch hosted mail metrics: %v", err)
		return
	}
	tracing.LogObjectAsJson(span, "metrics", snapshot)
	cm.log.Infof("Hosted mail metrics: total=%d counts=%v rates=%v", snapshot.Total, snapshot.Counts, snapshot.Rates)
}
