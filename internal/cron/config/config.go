package cron_config

type Config struct {
	// Heartbeat check, every minute
	CronScheduleHeartbeat string `env:"CRON_SCHEDULE_HEARTBEAT" envDefault:"0 * * * * *"`
	// Monthly usage gauges per tenant, every 15 minutes
	CronScheduleMonthlyUsage string `env:"CRON_SCHEDULE_MONTHLY_USAGE" envDefault:"0 */15 * * * *"`
	// Hosted email provider delivery stats, hourly
	CronScheduleHostedMailMetrics string `env:"CRON_SCHEDULE_HOSTED_MAIL_METRICS" envDefault:"0 0 * * * *"`
}
