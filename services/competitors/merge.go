package competitors

import (
	"encoding/json"
	"time"

	"cintel-backend/lib/scrapers/profilepage"
	"cintel-backend/services/competitors/db"
)

// MergeProfile folds a freshly scraped profile into an existing
// company row. the rules protect good data from bad scrapes:
//
//   - name and website are never touched
//   - fundings_total only ever grows (aggregates never shrink)
//   - address is overwritten whenever the scrape produced one
//   - everything else takes the newest non-empty value
//   - score is manual and stays out of merging entirely
func MergeProfile(existing db.Company, profile profilepage.Profile, now time.Time) db.UpdateCompanyProfileParams {
	params := db.UpdateCompanyProfileParams{
		ID:            existing.ID,
		Address:       existing.Address,
		FoundedYear:   existing.FoundedYear,
		FundingStage:  existing.FundingStage,
		FundingsTotal: existing.FundingsTotal,
		EmployeeQty:   existing.EmployeeQty,
		Categories:    existing.Categories,
		UpdatedAt:     now.Unix(),
	}

	if profile.TotalRaised > existing.FundingsTotal {
		params.FundingsTotal = profile.TotalRaised
	}
	if profile.Address != "" {
		params.Address = profile.Address
	}
	if profile.FoundedYear != 0 {
		params.FoundedYear = int64(profile.FoundedYear)
	}
	if profile.Stage != "" {
		params.FundingStage = profile.Stage
	}
	if profile.EmployeeCount != 0 {
		params.EmployeeQty = int64(profile.EmployeeCount)
	}
	if len(profile.Categories) > 0 {
		params.Categories = EncodeCategories(profile.Categories)
	}

	return params
}

// EncodeCategories stores category lists as a json array.
func EncodeCategories(categories []string) string {
	if len(categories) == 0 {
		return ""
	}
	encoded, err := json.Marshal(categories)
	if err != nil {
		return ""
	}
	return string(encoded)
}

func DecodeCategories(encoded string) []string {
	if encoded == "" {
		return nil
	}
	var categories []string
	err := json.Unmarshal([]byte(encoded), &categories)
	if err != nil {
		return nil
	}
	return categories
}
