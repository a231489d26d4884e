package match

import (
	"context"
	"fmt"
	"sort"

	"jobdesk-core/internal/config"
	"jobdesk-core/internal/logging"
	"jobdesk-core/pkg/models"
)

// Store is the persistence surface the match service needs.
type Store interface {
	GetSearchProfile(ctx context.Context, profileID string) (*models.SearchProfile, error)
	ListJobPostings(ctx context.Context, limit int) ([]models.JobPosting, error)
}

// Service computes stored-profile matches over the current posting set.
type Service struct {
	store    Store
	minScore int
	logger   logging.Logger
}

// maxPostingsPerScan caps a single scoring pass.
const maxPostingsPerScan = 500

// NewService returns a configured match service.
func NewService(store Store, cfg *config.Config) *Service {
	return &Service{
		store:    store,
		minScore: cfg.Match.MinScore,
		logger:   logging.GetGlobalLogger(),
	}
}

// MatchesForProfile scores the current posting set against a stored search
// profile and returns results at or above the configured threshold, highest
// score first.
func (s *Service) MatchesForProfile(ctx context.Context, profileID string) ([]models.MatchResult, error) {
	profile, err := s.store.GetSearchProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("load search profile: %w", err)
	}

	postings, err := s.store.ListJobPostings(ctx, maxPostingsPerScan)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}

	results := s.Score(postings, *profile)

	s.logger.Debug("Profile matched against posting set", map[string]interface{}{
		"profile_id": profileID,
		"postings":   len(postings),
		"matches":    len(results),
	})
	return results, nil
}

// Score runs the scoring model over a posting set and filters/sorts the
// results. Ordering is by score descending, job ID ascending for ties, so
// repeated calls over the same inputs return identical output.
func (s *Service) Score(postings []models.JobPosting, profile models.SearchProfile) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(postings))
	for _, posting := range postings {
		result := ComputeMatch(posting, profile)
		if result.OverallScore >= s.minScore {
			results = append(results, result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].OverallScore != results[j].OverallScore {
			return results[i].OverallScore > results[j].OverallScore
		}
		return results[i].JobID < results[j].JobID
	})
	return results
}
