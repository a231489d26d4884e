// Package match implements the weighted job-match scoring model. Scoring is
// pure and deterministic: malformed business data degrades the affected
// sub-score instead of raising an error.
package match

import (
	"math"
	"strings"

	"jobdesk-core/pkg/models"
)

// Sub-score weights. They must sum to 1.0.
const (
	weightSkills     = 0.30
	weightSalary     = 0.25
	weightLocation   = 0.20
	weightEmployment = 0.15
	weightTitle      = 0.10
)

// Partial-credit defaults. These are product-tunable constants, not invariants.
const (
	// LocationPartialScore is awarded when one location string contains the
	// other without matching exactly.
	LocationPartialScore = 60.0

	// TitlePartialCap bounds the token-overlap credit for titles that are not
	// substring matches.
	TitlePartialCap = 80.0

	// salaryFalloff is the relative gap between the profile's salary floor and
	// the posting's ceiling at which salary credit reaches zero. A posting
	// paying half the requested floor scores 0.
	salaryFalloff = 0.5
)

// remoteLocations are values treated as matching any location.
var remoteLocations = map[string]bool{
	"remote":   true,
	"any":      true,
	"anywhere": true,
}

// ComputeMatch scores a job posting against a search profile and returns the
// full breakdown. The overall score is rounded once, at the top, so that the
// weighted sub-scores always sum to it.
func ComputeMatch(posting models.JobPosting, profile models.SearchProfile) models.MatchResult {
	skills, matched := skillsScore(posting.RequiredSkills, profile.TechnicalSkills)
	salary := salaryScore(posting.SalaryMin, posting.SalaryMax, profile.MinSalary)
	location := locationScore(posting.Location, profile.Country)
	employment := employmentScore(posting.EmploymentTypes, profile.EmploymentTypes)
	title := titleScore(posting.Title, profile.JobTitles)

	overall := weightSkills*skills +
		weightSalary*salary +
		weightLocation*location +
		weightEmployment*employment +
		weightTitle*title

	return models.MatchResult{
		JobID:           posting.ID,
		OverallScore:    int(math.Round(clamp(overall))),
		SkillsScore:     skills,
		SalaryScore:     salary,
		LocationScore:   location,
		EmploymentScore: employment,
		TitleScore:      title,
		MatchedSkills:   matched,
	}
}

func clamp(score float64) float64 {
	if score < 0 || math.IsNaN(score) {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// skillsScore returns the fraction of required skills the profile covers and
// the matched skills in the posting's own casing. A posting with no skill
// requirements scores 100: there is nothing to fail.
func skillsScore(required, owned []string) (float64, []string) {
	seen := make(map[string]bool)
	ownedSet := make(map[string]bool, len(owned))
	for _, s := range owned {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			ownedSet[s] = true
		}
	}

	total := 0
	var matched []string
	for _, s := range required {
		key := strings.ToLower(strings.TrimSpace(s))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		total++
		if ownedSet[key] {
			matched = append(matched, strings.TrimSpace(s))
		}
	}

	if total == 0 {
		return 100, matched
	}
	return clamp(float64(len(matched)) / float64(total) * 100), matched
}

// salaryScore never penalizes unknown salary. When both sides are known the
// posting's ceiling is compared against the profile's floor, with credit
// falling off linearly as the gap widens.
func salaryScore(postingMin, postingMax, profileMin *int) float64 {
	ceiling := salaryBound(postingMax, postingMin)
	floor := 0
	if profileMin != nil && *profileMin > 0 {
		floor = *profileMin
	}
	if ceiling == 0 || floor == 0 {
		return 100
	}
	if ceiling >= floor {
		return 100
	}

	gap := float64(floor-ceiling) / float64(floor)
	return clamp((1 - gap/salaryFalloff) * 100)
}

// salaryBound picks the first positive bound, treating negatives as absent.
func salaryBound(bounds ...*int) int {
	for _, b := range bounds {
		if b != nil && *b > 0 {
			return *b
		}
	}
	return 0
}

func locationScore(postingLocation, profileCountry string) float64 {
	loc := strings.ToLower(strings.TrimSpace(postingLocation))
	country := strings.ToLower(strings.TrimSpace(profileCountry))

	// Unknown locations never penalize, mirroring the salary rule.
	if loc == "" || country == "" {
		return 100
	}
	if remoteLocations[loc] || remoteLocations[country] {
		return 100
	}
	if loc == country {
		return 100
	}
	if strings.Contains(loc, country) || strings.Contains(country, loc) {
		return LocationPartialScore
	}
	return 0
}

// employmentScore is all-or-nothing: an empty preference set means "any", and
// a posting that lists no types constrains nothing.
func employmentScore(postingTypes, profileTypes []models.EmploymentType) float64 {
	if len(profileTypes) == 0 || len(postingTypes) == 0 {
		return 100
	}
	for _, want := range profileTypes {
		for _, have := range postingTypes {
			if want == have {
				return 100
			}
		}
	}
	return 0
}

// titleScore gives full credit when any desired title appears inside the
// posting title, and token-overlap credit (capped at TitlePartialCap) when
// only some words line up.
func titleScore(postingTitle string, jobTitles []string) float64 {
	title := strings.ToLower(strings.TrimSpace(postingTitle))
	if title == "" || len(jobTitles) == 0 {
		return 100
	}

	titleTokens := tokenSet(title)
	best := 0.0
	for _, want := range jobTitles {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if want == title || strings.Contains(title, want) {
			return 100
		}

		wantTokens := tokenSet(want)
		if len(wantTokens) == 0 {
			continue
		}
		overlap := 0
		for tok := range wantTokens {
			if titleTokens[tok] {
				overlap++
			}
		}
		if ratio := float64(overlap) / float64(len(wantTokens)); ratio*TitlePartialCap > best {
			best = ratio * TitlePartialCap
		}
	}
	return clamp(best)
}

func tokenSet(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		tok = strings.Trim(tok, ",.;:()/-")
		if tok != "" {
			tokens[tok] = true
		}
	}
	return tokens
}
