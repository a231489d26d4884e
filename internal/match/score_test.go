package match_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdesk-core/internal/match"
	"jobdesk-core/pkg/models"
)

func intPtr(n int) *int { return &n }

func basePosting() models.JobPosting {
	return models.JobPosting{
		ID:              "job-1",
		Title:           "Backend Engineer",
		CompanyName:     "Acme",
		Location:        "Vietnam",
		RequiredSkills:  []string{"React", "Node"},
		SalaryMin:       intPtr(2000),
		EmploymentTypes: []models.EmploymentType{models.EmploymentFullTime},
	}
}

func baseProfile() models.SearchProfile {
	return models.SearchProfile{
		ID:              "profile-1",
		UserID:          "user-1",
		JobTitles:       []string{"Backend Engineer"},
		TechnicalSkills: []string{"React", "Python"},
		EmploymentTypes: []models.EmploymentType{models.EmploymentFullTime},
		Country:         "Vietnam",
		MinSalary:       intPtr(1500),
	}
}

func TestComputeMatch_ReferenceExample(t *testing.T) {
	result := match.ComputeMatch(basePosting(), baseProfile())

	assert.Equal(t, 50.0, result.SkillsScore)
	assert.Equal(t, 100.0, result.SalaryScore)
	assert.Equal(t, 100.0, result.LocationScore)
	assert.Equal(t, 100.0, result.EmploymentScore)
	assert.Equal(t, 100.0, result.TitleScore)
	assert.Equal(t, 85, result.OverallScore)
	assert.Equal(t, []string{"React"}, result.MatchedSkills)
}

func TestComputeMatch_Deterministic(t *testing.T) {
	first := match.ComputeMatch(basePosting(), baseProfile())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, match.ComputeMatch(basePosting(), baseProfile()))
	}
}

func TestComputeMatch_WeightInvariant(t *testing.T) {
	cases := []struct {
		name    string
		posting models.JobPosting
		profile models.SearchProfile
	}{
		{"reference", basePosting(), baseProfile()},
		{"empty both", models.JobPosting{}, models.SearchProfile{}},
		{"no overlap", models.JobPosting{
			Title:           "iOS Developer",
			Location:        "Germany",
			RequiredSkills:  []string{"Swift"},
			SalaryMax:       intPtr(900),
			EmploymentTypes: []models.EmploymentType{models.EmploymentContract},
		}, baseProfile()},
		{"partial location", models.JobPosting{
			Title:    "Platform Engineer",
			Location: "Hanoi, Vietnam",
		}, baseProfile()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := match.ComputeMatch(tc.posting, tc.profile)
			want := int(math.Round(0.30*r.SkillsScore + 0.25*r.SalaryScore +
				0.20*r.LocationScore + 0.15*r.EmploymentScore + 0.10*r.TitleScore))
			assert.Equal(t, want, r.OverallScore)
		})
	}
}

func TestComputeMatch_ClampInvariant(t *testing.T) {
	adversarial := []struct {
		name    string
		posting models.JobPosting
		profile models.SearchProfile
	}{
		{"all empty", models.JobPosting{}, models.SearchProfile{}},
		{"negative salary", models.JobPosting{SalaryMin: intPtr(-100), SalaryMax: intPtr(-5)},
			models.SearchProfile{MinSalary: intPtr(-20)}},
		{"huge gap", models.JobPosting{SalaryMax: intPtr(1)},
			models.SearchProfile{MinSalary: intPtr(1000000)}},
		{"whitespace skills", models.JobPosting{RequiredSkills: []string{"  ", ""}},
			models.SearchProfile{TechnicalSkills: []string{" "}}},
		{"duplicated skills", models.JobPosting{RequiredSkills: []string{"Go", "go", "GO"}},
			models.SearchProfile{TechnicalSkills: []string{"Go"}}},
	}

	for _, tc := range adversarial {
		t.Run(tc.name, func(t *testing.T) {
			r := match.ComputeMatch(tc.posting, tc.profile)
			for name, score := range map[string]float64{
				"skills":     r.SkillsScore,
				"salary":     r.SalaryScore,
				"location":   r.LocationScore,
				"employment": r.EmploymentScore,
				"title":      r.TitleScore,
				"overall":    float64(r.OverallScore),
			} {
				assert.GreaterOrEqual(t, score, 0.0, name)
				assert.LessOrEqual(t, score, 100.0, name)
			}
		})
	}
}

func TestSkillsScore_Rules(t *testing.T) {
	// No requirements means nothing to fail.
	posting := basePosting()
	posting.RequiredSkills = nil
	r := match.ComputeMatch(posting, baseProfile())
	assert.Equal(t, 100.0, r.SkillsScore)
	assert.Empty(t, r.MatchedSkills)

	// Case-insensitive intersection with duplicates collapsed.
	posting.RequiredSkills = []string{"react", "REACT", "Node", "Python"}
	r = match.ComputeMatch(posting, baseProfile())
	require.Len(t, r.MatchedSkills, 2) // react + Python, counted once each
	assert.InDelta(t, 100.0*2.0/3.0, r.SkillsScore, 0.0001)
}

func TestSalaryScore_Rules(t *testing.T) {
	profile := baseProfile()

	// Unknown posting salary never penalizes.
	posting := basePosting()
	posting.SalaryMin = nil
	posting.SalaryMax = nil
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).SalaryScore)

	// No profile floor never penalizes.
	posting = basePosting()
	profile.MinSalary = nil
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).SalaryScore)

	// Ceiling above floor is full credit; the max bound wins over min.
	profile = baseProfile()
	posting.SalaryMin = intPtr(100)
	posting.SalaryMax = intPtr(1500)
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).SalaryScore)

	// Below the floor, credit falls off and bottoms out at zero.
	posting.SalaryMax = intPtr(1200)
	partial := match.ComputeMatch(posting, profile).SalaryScore
	assert.Greater(t, partial, 0.0)
	assert.Less(t, partial, 100.0)

	posting.SalaryMax = intPtr(100)
	assert.Equal(t, 0.0, match.ComputeMatch(posting, profile).SalaryScore)
}

func TestLocationScore_Rules(t *testing.T) {
	profile := baseProfile()

	for _, loc := range []string{"Remote", "remote", "ANYWHERE", "any"} {
		posting := basePosting()
		posting.Location = loc
		assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).LocationScore, loc)
	}

	posting := basePosting()
	posting.Location = "Hanoi, Vietnam"
	assert.Equal(t, match.LocationPartialScore, match.ComputeMatch(posting, profile).LocationScore)

	posting.Location = "Berlin, Germany"
	assert.Equal(t, 0.0, match.ComputeMatch(posting, profile).LocationScore)
}

func TestEmploymentScore_Rules(t *testing.T) {
	posting := basePosting()
	profile := baseProfile()

	// Empty preference set means any.
	profile.EmploymentTypes = nil
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).EmploymentScore)

	// A posting that lists no types is an unknown field, not a mismatch.
	profile.EmploymentTypes = []models.EmploymentType{models.EmploymentFullTime}
	posting.EmploymentTypes = nil
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).EmploymentScore)

	// Disjoint sets score zero.
	posting = basePosting()
	profile.EmploymentTypes = []models.EmploymentType{models.EmploymentInternship}
	assert.Equal(t, 0.0, match.ComputeMatch(posting, profile).EmploymentScore)
}

func TestTitleScore_Rules(t *testing.T) {
	profile := baseProfile()

	// Substring match is full credit.
	posting := basePosting()
	posting.Title = "Senior Backend Engineer (Go)"
	assert.Equal(t, 100.0, match.ComputeMatch(posting, profile).TitleScore)

	// Token overlap earns partial credit.
	posting.Title = "Engineer, Data Platform"
	partial := match.ComputeMatch(posting, profile).TitleScore
	assert.Greater(t, partial, 0.0)
	assert.LessOrEqual(t, partial, match.TitlePartialCap)

	// No overlap at all scores zero.
	posting.Title = "Product Designer"
	assert.Equal(t, 0.0, match.ComputeMatch(posting, profile).TitleScore)
}
