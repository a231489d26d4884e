package notify

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"jobdesk-core/internal/config"
	"jobdesk-core/internal/logging"
	"jobdesk-core/internal/match"
	"jobdesk-core/pkg/models"
)

// Store is the persistence surface the digest scan needs.
type Store interface {
	ListActiveProfiles(ctx context.Context) ([]models.SearchProfile, error)
	ListJobPostingsSince(ctx context.Context, since time.Time) ([]models.JobPosting, error)
	GetAccount(ctx context.Context, userID string) (*models.Account, error)
}

// UnseenCounter records poll-and-check match counts for free accounts.
// Satisfied by utils.RedisClient.
type UnseenCounter interface {
	IncrUnseen(ctx context.Context, userID string, n int64) error
}

// AlertPublisher delivers immediate alerts for premium accounts. Satisfied by
// Publisher.
type AlertPublisher interface {
	Publish(ctx context.Context, alert models.MatchAlert) error
}

// Digest wires robfig/cron into a periodic match scan. Each run scores the
// postings that arrived since the previous run against every active search
// profile: premium users get pushed alerts, free users get their unseen
// counter bumped for later polling.
type Digest struct {
	cron      *cron.Cron
	store     Store
	counter   UnseenCounter
	publisher AlertPublisher
	spec      string
	minScore  int
	logger    logging.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewDigest creates a Digest from configuration.
func NewDigest(cfg *config.Config, store Store, counter UnseenCounter, publisher AlertPublisher) *Digest {
	return &Digest{
		cron:      cron.New(),
		store:     store,
		counter:   counter,
		publisher: publisher,
		spec:      cfg.Digest.Schedule,
		minScore:  cfg.Match.MinScore,
		logger:    logging.GetGlobalLogger(),
		lastRun:   time.Now(),
	}
}

// Start registers the scan and starts the scheduler.
func (d *Digest) Start(ctx context.Context) error {
	_, err := d.cron.AddFunc(d.spec, func() {
		d.Run(ctx)
	})
	if err != nil {
		return err
	}

	d.cron.Start()
	d.logger.Info("Digest scheduler started", map[string]interface{}{"schedule": d.spec})
	return nil
}

// Stop shuts the scheduler down, waiting for a running scan to finish.
func (d *Digest) Stop() {
	stopCtx := d.cron.Stop()
	<-stopCtx.Done()
	d.logger.Info("Digest scheduler stopped")
}

// Run executes one scan over the postings that arrived since the last run.
// It is exported so a scan can be triggered outside the schedule.
func (d *Digest) Run(ctx context.Context) {
	d.mu.Lock()
	since := d.lastRun
	d.lastRun = time.Now()
	d.mu.Unlock()

	postings, err := d.store.ListJobPostingsSince(ctx, since)
	if err != nil {
		d.logger.Error("Digest scan failed to list postings", map[string]interface{}{"error": err.Error()})
		return
	}
	if len(postings) == 0 {
		return
	}

	profiles, err := d.store.ListActiveProfiles(ctx)
	if err != nil {
		d.logger.Error("Digest scan failed to list profiles", map[string]interface{}{"error": err.Error()})
		return
	}

	for _, profile := range profiles {
		d.scanProfile(ctx, profile, postings)
	}
}

func (d *Digest) scanProfile(ctx context.Context, profile models.SearchProfile, postings []models.JobPosting) {
	account, err := d.store.GetAccount(ctx, profile.UserID)
	if err != nil {
		d.logger.Warn("Digest scan skipped profile without account", map[string]interface{}{
			"profile_id": profile.ID,
			"error":      err.Error(),
		})
		return
	}

	var hits int64
	for _, posting := range postings {
		result := match.ComputeMatch(posting, profile)
		if result.OverallScore < d.minScore {
			continue
		}
		hits++

		if !account.Premium {
			continue
		}
		alert := models.MatchAlert{
			UserID:    profile.UserID,
			ProfileID: profile.ID,
			JobID:     posting.ID,
			JobTitle:  posting.Title,
			Company:   posting.CompanyName,
			Score:     result.OverallScore,
		}
		if err := d.publisher.Publish(ctx, alert); err != nil {
			d.logger.Error("Failed to push match alert", map[string]interface{}{
				"user_id": profile.UserID,
				"job_id":  posting.ID,
				"error":   err.Error(),
			})
		}
	}

	// Free accounts poll: record how many new matches are waiting.
	if hits > 0 && !account.Premium {
		if err := d.counter.IncrUnseen(ctx, profile.UserID, hits); err != nil {
			d.logger.Error("Failed to bump unseen counter", map[string]interface{}{
				"user_id": profile.UserID,
				"error":   err.Error(),
			})
		}
	}
}
