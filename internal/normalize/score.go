package normalize

import (
	"math"

	"kosmos/internal/domain"
)

// RequiredFields lists, per category, the canonical fields whose
// presence drives the confidence score. Fixed lists: the score of a
// record is a pure function of which of these are populated.
var RequiredFields = map[domain.Category][]string{
	domain.CategoryCompany: {"name", "address", "status"},
	domain.CategorySchool:  {"name", "postcode", "phone"},
	domain.CategoryCharity: {"name", "postcode", "website"},
	domain.CategoryMP:      {"name", "party", "constituency"},
	domain.CategoryLord:    {"name", "party", "house"},
}

// Score computes the 0-100 completeness score: the rounded percentage of
// required fields that are non-empty.
func Score(entity domain.Entity, required []string) int {
	if len(required) == 0 {
		return 0
	}
	populated := 0
	for _, field := range required {
		if fieldPresent(entity, field) {
			populated++
		}
	}
	return int(math.Round(100 * float64(populated) / float64(len(required))))
}

// ScoreFor applies the category's fixed required-field list.
func ScoreFor(entity domain.Entity) int {
	return Score(entity, RequiredFields[entity.Category])
}

func fieldPresent(e domain.Entity, field string) bool {
	switch field {
	case "name":
		return e.Name != ""
	case "address":
		return !e.Address.IsEmpty()
	case "postcode":
		return e.Address.Postcode != ""
	case "town":
		return e.Address.Town != ""
	case "phone":
		return e.Contact.Phone != ""
	case "website":
		return e.Contact.Website != ""
	case "email":
		return e.Contact.Email != ""
	case "status":
		return e.RoleDetail.CompanyStatus != ""
	case "party":
		return e.RoleDetail.Party != ""
	case "constituency":
		return e.RoleDetail.Constituency != ""
	case "house":
		return e.RoleDetail.House != ""
	default:
		return false
	}
}
