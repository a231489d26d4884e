package match

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk-core/internal/config"
	"jobdesk-core/pkg/models"
)

type fakeStore struct {
	profile    *models.SearchProfile
	postings   []models.JobPosting
	profileErr error
	listErr    error
	limitSeen  int
}

func (s *fakeStore) GetSearchProfile(context.Context, string) (*models.SearchProfile, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

func (s *fakeStore) ListJobPostings(_ context.Context, limit int) ([]models.JobPosting, error) {
	s.limitSeen = limit
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.postings, nil
}

func serviceConfig(minScore int) *config.Config {
	cfg := &config.Config{}
	cfg.Match.MinScore = minScore
	return cfg
}

func TestScoreFiltersAndSorts(t *testing.T) {
	profile := models.SearchProfile{
		JobTitles:       []string{"Backend Engineer"},
		TechnicalSkills: []string{"Go"},
		EmploymentTypes: []models.EmploymentType{models.EmploymentFullTime},
		Country:         "Vietnam",
	}
	postings := []models.JobPosting{
		{ID: "job-partial", Title: "Backend Engineer", Location: "Germany", RequiredSkills: []string{"Go"}},
		{ID: "job-b", Title: "Backend Engineer", Location: "Vietnam", RequiredSkills: []string{"Go"}},
		{ID: "job-a", Title: "Backend Engineer", Location: "Vietnam", RequiredSkills: []string{"Go"}},
		{ID: "job-miss", Title: "Florist", Location: "Iceland", RequiredSkills: []string{"Flower arranging"},
			EmploymentTypes: []models.EmploymentType{models.EmploymentContract}},
	}

	svc := NewService(&fakeStore{}, serviceConfig(40))
	results := svc.Score(postings, profile)

	// The florist posting falls under the threshold; the rest come back
	// highest score first, with ties broken by job ID.
	require.Len(t, results, 3)
	assert.Equal(t, "job-a", results[0].JobID)
	assert.Equal(t, "job-b", results[1].JobID)
	assert.Equal(t, "job-partial", results[2].JobID)
	assert.Greater(t, results[0].OverallScore, results[2].OverallScore)
}

func TestScoreEmptyPostingSet(t *testing.T) {
	svc := NewService(&fakeStore{}, serviceConfig(40))
	results := svc.Score(nil, models.SearchProfile{})
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestMatchesForProfile(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{
		profile: &models.SearchProfile{
			JobTitles:       []string{"Backend Engineer"},
			TechnicalSkills: []string{"Go"},
			Country:         "Vietnam",
		},
		postings: []models.JobPosting{
			{ID: "job-1", Title: "Backend Engineer", Location: "Vietnam", RequiredSkills: []string{"Go"}},
		},
	}
	svc := NewService(store, serviceConfig(40))

	results, err := svc.MatchesForProfile(ctx, "profile-1")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "job-1", results[0].JobID)
	assert.Equal(t, maxPostingsPerScan, store.limitSeen)
}

func TestMatchesForProfileStoreErrors(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeStore{profileErr: errors.New("no rows")}, serviceConfig(40))
	_, err := svc.MatchesForProfile(ctx, "profile-1")
	assert.Error(t, err)

	svc = NewService(&fakeStore{
		profile: &models.SearchProfile{},
		listErr: errors.New("pg down"),
	}, serviceConfig(40))
	_, err = svc.MatchesForProfile(ctx, "profile-1")
	assert.Error(t, err)
}
