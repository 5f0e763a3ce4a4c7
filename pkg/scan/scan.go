package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/altmunch/SocialSchedule-sub011/pkg/config"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform"
	"github.com/altmunch/SocialSchedule-sub011/pkg/platform/registry"
	"github.com/altmunch/SocialSchedule-sub011/pkg/telemetry/logging"
)

// Target is what to fetch from one platform account.
type Target struct {
	// Key identifies the target in reports, normally the registry key.
	Key string

	Adapter  platform.Adapter
	Activity bool
	Posts    []Post
}

// PostResult is the outcome of one post fetch.
type PostResult struct {
	Target   string                `json:"target"`
	Platform string                `json:"platform"`
	PostID   string                `json:"post_id"`
	Priority int                   `json:"priority"`
	Metrics  *platform.PostMetrics `json:"metrics,omitempty"`
	Error    string                `json:"error,omitempty"`
	Err      error                 `json:"-"`
}

// ActivityResult is the outcome of one account snapshot fetch.
type ActivityResult struct {
	Target   string                 `json:"target"`
	Platform string                 `json:"platform"`
	Activity *platform.UserActivity `json:"activity,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Err      error                  `json:"-"`
}

// Report collects the outcomes of one scan cycle. Results are ordered by
// target, then by fetch order.
type Report struct {
	ID         string           `json:"id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Activity   []ActivityResult `json:"activity"`
	Posts      []PostResult     `json:"posts"`
}

// Failures returns the number of failed fetches.
func (r *Report) Failures() int {
	n := 0
	for _, a := range r.Activity {
		if a.Err != nil {
			n++
		}
	}
	for _, p := range r.Posts {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Duration returns how long the cycle took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

type targetResult struct {
	activity []ActivityResult
	posts    []PostResult
}

// Scan runs one cycle over targets. Targets are processed concurrently up to
// the configured limit; within a target the account snapshot is fetched
// first, then posts by descending priority. A failed fetch is recorded in the
// report and never stops the cycle. Once ctx is done, remaining fetches are
// recorded with the context error without being attempted.
func (o *Orchestrator) Scan(ctx context.Context, targets []Target) *Report {
	report := &Report{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
	ctx = logging.WithScanID(ctx, report.ID)

	o.logger.InfoContext(ctx, "scan started", "targets", len(targets))

	results := make([]targetResult, len(targets))

	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = o.scanTarget(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		report.Activity = append(report.Activity, r.activity...)
		report.Posts = append(report.Posts, r.posts...)
	}
	report.FinishedAt = time.Now()

	o.logger.InfoContext(ctx, "scan finished",
		"posts", len(report.Posts),
		"activity", len(report.Activity),
		"failures", report.Failures(),
		"duration", report.Duration(),
	)
	return report
}

func (o *Orchestrator) scanTarget(ctx context.Context, target Target) targetResult {
	var out targetResult
	name := ""
	if target.Adapter != nil {
		name = target.Adapter.Name()
	}

	if target.Activity {
		res := ActivityResult{Target: target.Key, Platform: name}
		if err := o.checkTarget(ctx, target); err != nil {
			res.Err = err
		} else if activity, err := o.FetchUserActivity(ctx, target.Adapter); err != nil {
			res.Err = err
		} else {
			res.Activity = &activity
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
			o.logger.WarnContext(ctx, "user activity fetch failed", "target", target.Key, "error", res.Err)
		}
		out.activity = append(out.activity, res)
	}

	for _, post := range ByPriority(target.Posts) {
		res := PostResult{Target: target.Key, Platform: name, PostID: post.ID, Priority: post.Priority}
		if err := o.checkTarget(ctx, target); err != nil {
			res.Err = err
		} else if m, err := o.FetchPostMetrics(ctx, target.Adapter, post.ID); err != nil {
			res.Err = err
		} else {
			res.Metrics = &m
		}
		if res.Err != nil {
			res.Error = res.Err.Error()
			o.logger.WarnContext(ctx, "post metrics fetch failed",
				"target", target.Key,
				"post_id", post.ID,
				"error", res.Err,
			)
		}
		out.posts = append(out.posts, res)
	}
	return out
}

func (o *Orchestrator) checkTarget(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if target.Adapter == nil {
		return fmt.Errorf("target %q has no adapter", target.Key)
	}
	return nil
}

// TargetsFromConfig resolves the scan.targets section against the adapters
// in m. Targets whose adapter is missing are reported in the returned error
// and left out.
func TargetsFromConfig(targets []config.TargetConfig, m *registry.Manager) ([]Target, error) {
	var (
		out  []Target
		errs []error
	)
	for _, tc := range targets {
		key := registry.Key(tc.Platform, tc.Account)
		adapter, err := m.Get(key)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		posts := make([]Post, 0, len(tc.Posts))
		for _, p := range tc.Posts {
			posts = append(posts, Post{ID: p.ID, Priority: p.Priority})
		}
		out = append(out, Target{
			Key:      key,
			Adapter:  adapter,
			Activity: tc.Activity,
			Posts:    posts,
		})
	}
	return out, errors.Join(errs...)
}
