package cron

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	cronv3 "github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes"

	"github.com/customeros/cardstack/config"
	"github.com/customeros/cardstack/dto"
	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/repository/inmemory"
	"github.com/customeros/cardstack/internal/utils"
	"github.com/customeros/cardstack/services/quota"
)

type mockKubernetesInterface struct {
	kubernetes.Interface
	mock.Mock
}

type mockMailMetrics struct {
	mock.Mock
}

func (m *mockMailMetrics) Metrics(ctx context.Context) (*dto.HostedMailMetrics, error) {
	args := m.Called(ctx)
	return args.Get(0).(*dto.HostedMailMetrics), args.Error(1)
}

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{
		DevMode: true,
	})
	appLogger.InitLogger()
	return appLogger
}

func TestNewCronManager(t *testing.T) {
	cfg := &config.Config{AppConfig: &config.AppConfig{}}
	log := getLogger()
	k8s := &mockKubernetesInterface{}

	cm := NewCronManager(cfg, log, k8s, nil, nil, nil)

	assert.NotNil(t, cm)
	assert.Equal(t, cfg, cm.cfg)
	assert.Equal(t, log, cm.log)
	assert.Equal(t, k8s, cm.k8s)
	assert.NotNil(t, cm.jobIDs)
}

func TestCronManager_RegisterJobs(t *testing.T) {
	os.Setenv("CRON_SCHEDULE_MONTHLY_USAGE", "0 */5 * * * *")
	defer os.Unsetenv("CRON_SCHEDULE_MONTHLY_USAGE")

	log := getLogger()
	history := inmemory.NewHistoryRepository()
	cm := NewCronManager(&config.Config{}, log, nil,
		inmemory.NewTenantProfileRepository(), quota.NewQuotaService(log, history, time.UTC), &mockMailMetrics{})

	c := cronv3.New(cronv3.WithSeconds())
	cm.registerJobs(c)

	assert.Len(t, cm.jobIDs, 3)
	assert.Contains(t, cm.jobIDs, "heartbeat")
	assert.Contains(t, cm.jobIDs, "monthly_usage")
	assert.Contains(t, cm.jobIDs, "hosted_mail_metrics")
}

func TestCronManager_RegisterJobs_SkipsUnwiredJobs(t *testing.T) {
	cm := NewCronManager(&config.Config{}, getLogger(), nil, nil, nil, nil)

	c := cronv3.New(cronv3.WithSeconds())
	cm.registerJobs(c)

	assert.Len(t, cm.jobIDs, 1)
	assert.Contains(t, cm.jobIDs, "heartbeat")
}

func TestCronManager_ReportMonthlyUsage(t *testing.T) {
	log := getLogger()
	history := inmemory.NewHistoryRepository()
	for i := 0; i < 3; i++ {
		require.NoError(t, history.Create(context.Background(), &models.History{Tenant: "cron-tenant", SentAt: utils.Now()}))
	}
	profiles := inmemory.NewTenantProfileRepository(models.TenantProfile{Tenant: "cron-tenant", MonthlyLimit: 3})
	cm := NewCronManager(&config.Config{}, log, nil, profiles, quota.NewQuotaService(log, history, time.UTC), nil)

	cm.reportMonthlyUsage(context.Background())

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, family := range families {
		if family.GetName() != "cardstack_quota_monthly_usage" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "tenant" && label.GetValue() == "cron-tenant" {
					found = true
					assert.Equal(t, float64(3), metric.GetGauge().GetValue())
				}
			}
		}
	}
	assert.True(t, found)
}

func TestCronManager_SnapshotHostedMailMetrics(t *testing.T) {
	provider := &mockMailMetrics{}
	provider.On("Metrics", mock.Anything).Return(&dto.HostedMailMetrics{Total: 2, Counts: map[string]int{"delivered": 2}}, nil)
	cm := NewCronManager(&config.Config{}, getLogger(), nil, nil, nil, provider)

	cm.snapshotHostedMailMetrics(context.Background())

	provider.AssertExpectations(t)
}

func TestCronManager_Stop(t *testing.T) {
	cm := NewCronManager(&config.Config{}, getLogger(), &mockKubernetesInterface{}, nil, nil, nil)

	mockCron := cronv3.New()
	mockCron.Start()
	cm.cron = mockCron

	cm.Stop()

	select {
	case <-cm.stopCh:
	default:
		t.Error("Stop channel was not closed")
	}
}
