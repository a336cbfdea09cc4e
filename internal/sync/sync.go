// Package sync pushes at-risk customers from an analysis run into Salesforce
// as follow-up tasks for the account teams.
package sync

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/JaimeV365/segmentor-sub003/internal/model"
	"github.com/JaimeV365/segmentor-sub003/internal/resilience"
	"github.com/JaimeV365/segmentor-sub003/pkg/salesforce"
)

// Options control one sync run.
type Options struct {
	// MinRiskScore is the floor (0-100) below which HIGH-risk members are
	// still skipped. Crossroads customers bypass the floor.
	MinRiskScore float64

	// DryRun selects and matches customers but creates no tasks.
	DryRun bool
}

// Summary reports what one sync run did.
type Summary struct {
	Selected     int  `json:"selected"`
	Matched      int  `json:"matched"`
	Unmatched    int  `json:"unmatched"`
	TasksCreated int  `json:"tasks_created"`
	TasksFailed  int  `json:"tasks_failed"`
	DryRun       bool `json:"dry_run"`
}

// Syncer maps analysis results onto Salesforce follow-up tasks. Salesforce
// calls run behind a shared circuit breaker with retry on transient errors.
type Syncer struct {
	client salesforce.Client
	retry  resilience.RetryConfig
	cb     *resilience.CircuitBreaker
	log    *zap.Logger
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithRetryConfig overrides the default retry policy.
func WithRetryConfig(cfg resilience.RetryConfig) SyncerOption {
	return func(s *Syncer) { s.retry = cfg }
}

// WithLogger overrides the default logger.
func WithLogger(log *zap.Logger) SyncerOption {
	return func(s *Syncer) { s.log = log }
}

// New creates a Syncer over the given Salesforce client.
func New(client salesforce.Client, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		client: client,
		retry:  resilience.DefaultRetryConfig(),
		cb:     resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		log:    zap.L().With(zap.String("component", "sync")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run selects actionable customers from the analysis result, matches them to
// Salesforce contacts by email, and creates one follow-up task per match.
func (s *Syncer) Run(ctx context.Context, dataset model.Dataset, points []model.DataPoint, result *model.ProximityAnalysisResult, opts Options) (*Summary, error) {
	sum := &Summary{DryRun: opts.DryRun}

	candidates := SelectActionable(points, result, opts.MinRiskScore)
	sum.Selected = len(candidates)
	if len(candidates) == 0 {
		s.log.Info("nothing actionable", zap.String("dataset", dataset.ID))
		return sum, nil
	}

	contacts, err := s.findContacts(ctx, candidates)
	if err != nil {
		return sum, eris.Wrap(err, "sync: find contacts")
	}

	records, unmatched := TaskRecords(candidates, contacts, dataset.Name)
	sum.Matched = len(records)
	sum.Unmatched = len(unmatched)

	for _, c := range unmatched {
		s.log.Debug("no salesforce contact for customer",
			zap.String("customer", c.ID),
			zap.String("email", c.Email),
		)
	}

	if opts.DryRun {
		s.log.Info("dry run, skipping task insert",
			zap.String("dataset", dataset.ID),
			zap.Int("selected", sum.Selected),
			zap.Int("matched", sum.Matched),
			zap.Int("unmatched", sum.Unmatched),
		)
		return sum, nil
	}

	if len(records) > 0 {
		retryCfg := s.retry
		retryCfg.OnRetry = resilience.RetryLogger("salesforce", "insert tasks")

		results, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]salesforce.CollectionResult, error) {
			return resilience.ExecuteVal(ctx, s.cb, func(ctx context.Context) ([]salesforce.CollectionResult, error) {
				return salesforce.BulkInsertTasks(ctx, s.client, records)
			})
		})
		if err != nil {
			return sum, eris.Wrap(err, "sync: insert tasks")
		}

		for _, r := range results {
			if r.Success {
				sum.TasksCreated++
			} else {
				sum.TasksFailed++
				s.log.Warn("task insert failed",
					zap.String("sf_id", r.ID),
					zap.Strings("errors", r.Errors),
				)
			}
		}
	}

	s.log.Info("sync complete",
		zap.String("dataset", dataset.ID),
		zap.Int("selected", sum.Selected),
		zap.Int("tasks_created", sum.TasksCreated),
		zap.Int("tasks_failed", sum.TasksFailed),
		zap.Int("unmatched", sum.Unmatched),
	)
	return sum, nil
}

// findContacts looks up Salesforce contacts for every distinct candidate
// email. Candidates without an email are skipped here and surface later as
// unmatched.
func (s *Syncer) findContacts(ctx context.Context, candidates []Candidate) ([]salesforce.Contact, error) {
	seen := make(map[string]struct{}, len(candidates))
	var emails []string
	for _, c := range candidates {
		e := strings.ToLower(strings.TrimSpace(c.Email))
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		emails = append(emails, e)
	}
	if len(emails) == 0 {
		return nil, nil
	}

	retryCfg := s.retry
	retryCfg.OnRetry = resilience.RetryLogger("salesforce", "find contacts")

	return resilience.DoVal(ctx, retryCfg, func(ctx context.Context) ([]salesforce.Contact, error) {
		return resilience.ExecuteVal(ctx, s.cb, func(ctx context.Context) ([]salesforce.Contact, error) {
			return salesforce.FindContactsByEmail(ctx, s.client, emails)
		})
	})
}
