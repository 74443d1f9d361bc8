// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "GEMS_PORT"
	EnvLogLevel        = "GEMS_LOG_LEVEL"
	EnvShutdownTimeout = "GEMS_SHUTDOWN_TIMEOUT"

	// Data sources
	EnvDataDir         = "GEMS_DATA_DIR"
	EnvEvaluationFile  = "GEMS_EVALUATION_FILE"
	EnvCatalogFile     = "GEMS_CATALOG_FILE"
	EnvAssessmentFile  = "GEMS_ASSESSMENT_FILE"
	EnvWarmupGrace     = "GEMS_WARMUP_GRACE_PERIOD"
	EnvMaxCoursesReply = "GEMS_MAX_COURSES_PER_RESPONSE"

	// Rate Limits
	EnvClientRateBurst  = "GEMS_CLIENT_RATE_BURST"
	EnvClientRateRefill = "GEMS_CLIENT_RATE_REFILL"

	// R2 Source Sync Feature
	EnvR2Enabled         = "GEMS_R2_ENABLED"
	EnvR2AccountID       = "GEMS_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "GEMS_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "GEMS_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "GEMS_R2_BUCKET_NAME"
	EnvR2SourcePrefix    = "GEMS_R2_SOURCE_PREFIX"

	// Sentry Feature
	EnvSentryToken       = "GEMS_SENTRY_TOKEN"
	EnvSentryHost        = "GEMS_SENTRY_HOST"
	EnvSentryEnvironment = "GEMS_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "GEMS_SENTRY_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackToken    = "GEMS_BETTERSTACK_TOKEN"
	EnvBetterStackEndpoint = "GEMS_BETTERSTACK_ENDPOINT"

	// Metrics Auth Feature
	EnvMetricsUsername = "GEMS_METRICS_USERNAME"
	EnvMetricsPassword = "GEMS_METRICS_PASSWORD"
)
