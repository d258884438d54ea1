package metrics

// Metric names
const (
	MetricNamePagesFetched   = "authsync_pages_fetched_total"
	MetricNameUsersFetched   = "authsync_users_fetched_total"
	MetricNameLoginsSynced   = "authsync_logins_synced_total"
	MetricNameFetchesSkipped = "authsync_fetches_skipped_total"
	MetricNameUpserts        = "authsync_upserts_total"
	MetricNameRunDuration    = "authsync_run_duration_seconds"
	MetricNameLastRunSuccess = "authsync_last_success_timestamp_seconds"
)

// Help text
const (
	HelpTextPagesFetched   = "User pages requested from the identity provider"
	HelpTextUsersFetched   = "Users returned by the identity provider"
	HelpTextLoginsSynced   = "Login events handed to the sink"
	HelpTextFetchesSkipped = "Fetches that failed and were skipped instead of aborting the run"
	HelpTextUpserts        = "Records upserted into the sink"
	HelpTextRunDuration    = "Duration of the last sync run"
	HelpTextLastRunSuccess = "Unix time of the last successful sync run"
)

// Labels
const (
	LabelStage  = "stage"
	LabelReason = "reason"
	LabelKind   = "kind"
)

// Label values
const (
	StageUsers = "users"
	StageLogs  = "logs"

	ReasonStatus    = "status"
	ReasonRateLimit = "rate_limit"

	KindUser  = "user"
	KindLogin = "login"
)

// JobName groups pushed metrics on the Pushgateway.
const JobName = "authsync"
