package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/auth0"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/metrics"
)

type TokenSource interface {
	Fetch(ctx context.Context) (*auth0.Token, error)
}

type API interface {
	ListUsersPage(ctx context.Context, token *auth0.Token, page int) ([]auth0.User, error)
	ListUserLogs(ctx context.Context, token *auth0.Token, userID string) ([]auth0.LogEntry, error)
}

type Sink interface {
	UpsertAuthUser(ctx context.Context, u *entity.AuthUser) error
	UpsertAuthUserLogin(ctx context.Context, l *entity.AuthUserLogin) error
}

// Summary describes a finished run.
type Summary struct {
	RunID              string        `json:"run_id"`
	Pages              int           `json:"pages"`
	Users              int           `json:"users"`
	Logins             int           `json:"logins"`
	SkippedPageFetches int           `json:"skipped_page_fetches"`
	SkippedLogFetches  int           `json:"skipped_log_fetches"`
	RateLimited        int           `json:"rate_limited"`
	Duration           time.Duration `json:"duration"`
}

// Runner performs one sync pass: token, user pages, then per-user logs and upserts.
type Runner struct {
	tokens     TokenSource
	api        API
	sink       Sink
	normalizer *authuser.Normalizer

	runID   string
	delay   time.Duration
	strict  bool
	logger  *zap.SugaredLogger
	metrics *metrics.Metrics
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
}

type Option func(*Runner)

func WithRunID(id string) Option { return func(r *Runner) { r.runID = id } }

// WithDelay sets the pause after every provider request.
func WithDelay(d time.Duration) Option { return func(r *Runner) { r.delay = d } }

// WithStrictFetch makes failed page or log fetches abort the run.
func WithStrictFetch(strict bool) Option { return func(r *Runner) { r.strict = strict } }

func WithLogger(l *zap.SugaredLogger) Option { return func(r *Runner) { r.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(r *Runner) { r.metrics = m } }

func NewRunner(tokens TokenSource, api API, sink Sink, normalizer *authuser.Normalizer, opts ...Option) *Runner {
	r := &Runner{
		tokens:     tokens,
		api:        api,
		sink:       sink,
		normalizer: normalizer,
		delay:      2 * time.Second,
		logger:     zap.NewNop().Sugar(),
		metrics:    metrics.New(),
		sleep:      sleepContext,
		now:        time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run executes the pass. Records already upserted stay in the sink when it
// fails part way.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()
	sum := &Summary{RunID: r.runID}
	log := r.logger.With("run_id", r.runID)

	err := r.run(ctx, log, sum)
	end := r.now()
	sum.Duration = end.Sub(start)
	r.metrics.ObserveRun(start, end, err == nil)
	if err != nil {
		log.Errorw("sync failed", "error", err, "users", sum.Users, "logins", sum.Logins)
		return sum, err
	}
	log.Infow("sync finished",
		"pages", sum.Pages,
		"users", sum.Users,
		"logins", sum.Logins,
		"skipped_page_fetches", sum.SkippedPageFetches,
		"skipped_log_fetches", sum.SkippedLogFetches,
		"rate_limited", sum.RateLimited,
		"duration", sum.Duration.String(),
	)
	return sum, nil
}

func (r *Runner) run(ctx context.Context, log *zap.SugaredLogger, sum *Summary) error {
	token, err := r.tokens.Fetch(ctx)
	if err != nil {
		return err
	}

	users, err := r.listUsers(ctx, log, token, sum)
	if err != nil {
		return err
	}
	log.Infow("fetched users", "count", len(users), "pages", sum.Pages)

	for _, u := range users {
		if err := r.syncUser(ctx, log, token, u, sum); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) listUsers(ctx context.Context, log *zap.SugaredLogger, token *auth0.Token, sum *Summary) ([]auth0.User, error) {
	var users []auth0.User
	for page := 0; ; page++ {
		batch, err := r.api.ListUsersPage(ctx, token, page)
		sum.Pages++
		r.metrics.PagesFetched.Inc()
		if err != nil {
			var se *auth0.StatusError
			if !errors.As(err, &se) || r.strict {
				return users, err
			}
			sum.SkippedPageFetches++
			r.metrics.FetchesSkipped.WithLabelValues(metrics.StageUsers, metrics.ReasonStatus).Inc()
			log.Warnw("user page fetch failed, ending pagination",
				"page", page, "status", se.StatusCode, "resp", se.Body)
			return users, nil
		}
		if err := r.sleep(ctx, r.delay); err != nil {
			return users, err
		}
		if len(batch) == 0 {
			return users, nil
		}
		users = append(users, batch...)
		r.metrics.UsersFetched.Add(float64(len(batch)))
	}
}

func (r *Runner) syncUser(ctx context.Context, log *zap.SugaredLogger, token *auth0.Token, u auth0.User, sum *Summary) error {
	logs, err := r.userLogs(ctx, log, token, u.UserID, sum)
	if err != nil {
		return err
	}
	if err := r.sleep(ctx, r.delay); err != nil {
		return err
	}

	au, err := r.normalizer.Normalize(u)
	if err != nil {
		return err
	}
	if len(logs) > 0 {
		au.LastApplicationAccessed = logs[0].ClientName
	}
	if err := r.sink.UpsertAuthUser(ctx, au); err != nil {
		return err
	}
	sum.Users++
	r.metrics.Upserts.WithLabelValues(metrics.KindUser).Inc()

	for _, l := range logs {
		if err := r.sink.UpsertAuthUserLogin(ctx, authuser.Login(au, l)); err != nil {
			return err
		}
		sum.Logins++
		r.metrics.LoginsSynced.Inc()
		r.metrics.Upserts.WithLabelValues(metrics.KindLogin).Inc()
	}
	log.Debugw("synced user", "user_id", au.UserID, "logins", len(logs))
	return nil
}

// userLogs fetches the logs of one user. Rate-limit and status failures yield
// no logs unless strict fetching is on.
func (r *Runner) userLogs(ctx context.Context, log *zap.SugaredLogger, token *auth0.Token, userID string, sum *Summary) ([]auth0.LogEntry, error) {
	logs, err := r.api.ListUserLogs(ctx, token, userID)
	if err == nil {
		return logs, nil
	}

	var rl *auth0.RateLimitError
	var se *auth0.StatusError
	switch {
	case errors.As(err, &rl):
		if r.strict {
			return nil, fmt.Errorf("logs for %s: %w", userID, err)
		}
		sum.RateLimited++
		sum.SkippedLogFetches++
		r.metrics.FetchesSkipped.WithLabelValues(metrics.StageLogs, metrics.ReasonRateLimit).Inc()
		log.Warnw("rate limited fetching user logs",
			"user_id", userID,
			"limit", rl.Limit,
			"remaining", rl.Remaining,
			"reset", rl.ResetIn(r.now()),
		)
		return nil, nil
	case errors.As(err, &se):
		if r.strict {
			return nil, fmt.Errorf("logs for %s: %w", userID, err)
		}
		sum.SkippedLogFetches++
		r.metrics.FetchesSkipped.WithLabelValues(metrics.StageLogs, metrics.ReasonStatus).Inc()
		log.Warnw("user log fetch failed", "user_id", userID, "status", se.StatusCode, "resp", se.Body)
		return nil, nil
	default:
		return nil, err
	}
}
