// Package normalize maps raw per-source records onto the canonical
// entity schema and stamps them with confidence, provenance, and
// compliance metadata. Field mappings are data, not code paths: each
// category owns a table of canonical field -> candidate raw keys.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"kosmos/internal/connect"
	"kosmos/internal/domain"
)

// Error reports a record that lacked enough structure to be parsed at
// all. Individually missing optional fields never produce one.
type Error struct {
	Category   domain.Category
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("normalize %s: %s: %v", e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("normalize %s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// ErrEmptyName marks a person record whose derived name is empty or a
// placeholder join of empty parts. Such records are discarded, not
// persisted.
var ErrEmptyName = errors.New("empty or placeholder person name")

// FieldMap maps a canonical field name to candidate raw keys, tried in
// order; the first non-empty value wins. Keys may be dotted paths into
// nested objects ("registered_office_address.locality").
type FieldMap map[string][]string

// Tables holds one FieldMap per category. DefaultTables covers the four
// registers; callers may supply adjusted tables without touching code.
type Tables map[domain.Category]FieldMap

// DefaultTables returns the built-in source field mappings.
func DefaultTables() Tables {
	return Tables{
		domain.CategoryCompany: {
			"name":     {"company_name", "title"},
			"street":   {"registered_office_address.address_line_1", "address.address_line_1", "address.premises"},
			"locality": {"registered_office_address.address_line_2", "address.address_line_2"},
			"town":     {"registered_office_address.locality", "address.locality"},
			"county":   {"registered_office_address.region", "address.region"},
			"postcode": {"registered_office_address.postal_code", "address.postal_code"},
			"website":  {"company_uri"},
		},
		domain.CategorySchool: {
			"name":     {"EstablishmentName", "name"},
			"street":   {"Street", "street"},
			"locality": {"Locality", "locality"},
			"town":     {"Town", "town"},
			"county":   {"County", "county"},
			"postcode": {"Postcode", "postcode"},
			"phone":    {"TelephoneNum", "tel"},
			"website":  {"Website", "web"},
			"email":    {"Email", "email"},
		},
		domain.CategoryCharity: {
			"name":     {"charityName"},
			"street":   {"addressLine1"},
			"locality": {"addressLine2"},
			"town":     {"townCity"},
			"county":   {"county"},
			"postcode": {"postcode"},
			"phone":    {"phoneNumber"},
			"website":  {"website"},
			"email":    {"emailAddress"},
		},
		domain.CategoryMP: {
			"name": {"name.listAs", "nameListAs"},
		},
		domain.CategoryLord: {
			"name": {"name.listAs", "nameListAs"},
		},
	}
}

// Normalizer applies the mapping tables and per-category assembly.
type Normalizer struct {
	tables Tables
}

// New builds a normalizer; nil tables fall back to DefaultTables.
func New(tables Tables) *Normalizer {
	if tables == nil {
		tables = DefaultTables()
	}
	return &Normalizer{tables: tables}
}

// Normalize maps one raw record onto the canonical schema. The entity
// comes back without confidence, provenance, or compliance stamps; the
// pipeline applies those independently.
func (n *Normalizer) Normalize(raw connect.Raw, category domain.Category) (domain.Entity, error) {
	if len(raw) == 0 {
		return domain.Entity{}, &Error{Category: category, Message: "record has no fields"}
	}
	if !category.Valid() {
		return domain.Entity{}, &Error{Category: category, Message: "unknown category"}
	}

	// Parliament records carry their house; Lords map to their own
	// category regardless of the connector's primary one.
	if category == domain.CategoryMP && raw.String("house") == "Lords" {
		category = domain.CategoryLord
	}

	table := n.tables[category]
	name := strings.TrimSpace(lookup(raw, table["name"]))

	entity := domain.Entity{
		EntityType: category.Type(),
		Category:   category,
		Name:       name,
		Address: domain.Address{
			Street:   lookup(raw, table["street"]),
			Locality: lookup(raw, table["locality"]),
			Town:     lookup(raw, table["town"]),
			County:   lookup(raw, table["county"]),
			Postcode: lookup(raw, table["postcode"]),
			Country:  "UK",
		},
		Contact: domain.Contact{
			Phone:   lookup(raw, table["phone"]),
			Website: lookup(raw, table["website"]),
			Email:   lookup(raw, table["email"]),
		},
	}

	switch category {
	case domain.CategoryCompany:
		entity.RoleDetail = companyDetail(raw)
	case domain.CategorySchool:
		entity.RoleDetail = schoolDetail(raw)
	case domain.CategoryCharity:
		entity.RoleDetail = charityDetail(raw)
	case domain.CategoryMP, domain.CategoryLord:
		entity.RoleDetail = memberDetail(raw)
	}

	entity.Enrichment = domain.Enrichment{
		FundingEligible:    boolField(raw, "funding_eligible"),
		EligibilityChecked: boolField(raw, "eligibility_checked"),
	}

	if entity.EntityType == domain.EntityPerson && entity.Name == "" {
		return domain.Entity{}, fmt.Errorf("%s record: %w", category, ErrEmptyName)
	}
	if entity.Name == "" {
		return domain.Entity{}, &Error{Category: category, Message: "record has no name field"}
	}
	return entity, nil
}

func companyDetail(raw connect.Raw) domain.RoleDetail {
	detail := domain.RoleDetail{
		CompanyNumber: raw.String("company_number"),
		CompanyStatus: stringify(firstOf(raw, "company_status", "status")),
	}
	if codes, ok := raw["sic_codes"].([]any); ok {
		for _, code := range codes {
			if s := stringify(code); s != "" {
				detail.SICCodes = append(detail.SICCodes, s)
			}
		}
	}
	if officers, ok := raw["officers"].([]map[string]any); ok {
		detail.Officers = parseOfficers(officers)
	} else if items, ok := raw["officers"].([]any); ok {
		var maps []map[string]any
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				maps = append(maps, m)
			}
		}
		detail.Officers = parseOfficers(maps)
	}
	return detail
}

// parseOfficers drops officers with placeholder-empty names: a person
// record without a usable name must never survive normalization.
func parseOfficers(items []map[string]any) []domain.Officer {
	var officers []domain.Officer
	for _, item := range items {
		raw := connect.Raw(item)
		name := strings.TrimSpace(raw.String("name"))
		if name == "" {
			continue
		}
		officers = append(officers, domain.Officer{
			Name:        name,
			Role:        raw.String("officer_role"),
			AppointedOn: raw.String("appointed_on"),
		})
	}
	return officers
}

func schoolDetail(raw connect.Raw) domain.RoleDetail {
	detail := domain.RoleDetail{
		Phase:          stringify(firstOf(raw, "PhaseOfEducation", "phase")),
		OfstedRating:   stringify(firstOf(raw, "OverallEffectiveness", "ofsted_rating")),
		LocalAuthority: stringify(firstOf(raw, "LAName", "la")),
	}

	// A head name joined from two empty parts is no head at all.
	first := strings.TrimSpace(stringify(firstOf(raw, "HeadFirstName", "headfirstname")))
	last := strings.TrimSpace(stringify(firstOf(raw, "HeadLastName", "headsecondname")))
	name := strings.TrimSpace(first + " " + last)
	if name != "" {
		detail.Head = &domain.PersonRef{
			Name:  name,
			Title: stringify(firstOf(raw, "HeadTitle", "headtitle")),
			Role:  stringify(firstOf(raw, "HeadPreferredJobTitle")),
		}
	}
	return detail
}

func charityDetail(raw connect.Raw) domain.RoleDetail {
	detail := domain.RoleDetail{
		CharityNumber: stringify(raw["charityNumber"]),
		Activities:    raw.String("activities"),
	}
	if n, ok := raw["numberOfTrustees"].(float64); ok {
		detail.TrusteesCount = int(n)
	}
	if detail.TrusteesCount == 0 {
		switch trustees := raw["trustees"].(type) {
		case []any:
			detail.TrusteesCount = len(trustees)
		case []map[string]any:
			detail.TrusteesCount = len(trustees)
		}
	}
	return detail
}

func memberDetail(raw connect.Raw) domain.RoleDetail {
	return domain.RoleDetail{
		Party:        lookup(raw, []string{"party.name"}),
		Constituency: lookup(raw, []string{"constituency.name"}),
		House:        raw.String("house"),
		FullTitle:    raw.String("fullTitle"),
	}
}

// usable reports whether a raw value actually carries data. Several
// registers emit the literal "None" for absent optionals; it maps to
// empty, same as a missing key.
func usable(s string) bool {
	return s != "" && s != "None"
}

// lookup resolves candidate keys against the raw record, walking dotted
// paths through nested objects. Missing fields map to "", never to the
// literal "None".
func lookup(raw connect.Raw, keys []string) string {
	for _, key := range keys {
		if v := resolvePath(raw, key); usable(v) {
			return v
		}
	}
	return ""
}

func resolvePath(raw connect.Raw, path string) string {
	parts := strings.Split(path, ".")
	var current any = map[string]any(raw)
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return ""
		}
		current = m[part]
	}
	return stringify(current)
}

func firstOf(raw connect.Raw, keys ...string) any {
	for _, key := range keys {
		if v, ok := raw[key]; ok && usable(stringify(v)) {
			return v
		}
	}
	return nil
}

// boolField reads an outreach-enrichment indicator. Enriched regional
// exports carry these as JSON booleans or as "True"/"Yes" strings.
func boolField(raw connect.Raw, keys ...string) bool {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes", "1":
				return true
			}
		}
	}
	return false
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
