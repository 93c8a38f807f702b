package domain

import (
	"errors"
	"strings"
	"time"
)

// EntityType distinguishes organisational records from person records.
type EntityType string

const (
	EntityOrganisation EntityType = "organisation"
	EntityPerson       EntityType = "person"
)

// Category is the source-specific subtype of an entity. Each connector
// produces records for exactly one category except parliament, which
// yields both MPs and Lords.
type Category string

const (
	CategoryCompany Category = "company"
	CategorySchool  Category = "school"
	CategoryCharity Category = "charity"
	CategoryMP      Category = "mp"
	CategoryLord    Category = "lord"
)

// Type returns the entity type a category maps to. Elected officials are
// person records; registers of organisations are organisation records.
func (c Category) Type() EntityType {
	switch c {
	case CategoryMP, CategoryLord:
		return EntityPerson
	default:
		return EntityOrganisation
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryCompany, CategorySchool, CategoryCharity, CategoryMP, CategoryLord:
		return true
	}
	return false
}

// Address is the canonical postal address block. Every field is optional
// except Country, which defaults to "UK" at normalization.
type Address struct {
	Street   string `json:"street,omitempty"`
	Locality string `json:"locality,omitempty"`
	Town     string `json:"town,omitempty"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Country  string `json:"country"`
}

// IsEmpty reports whether no location field is populated. Country alone
// does not count; it is defaulted.
func (a Address) IsEmpty() bool {
	return a.Street == "" && a.Locality == "" && a.Town == "" &&
		a.County == "" && a.Postcode == ""
}

// Contact holds the public contact channels for an entity.
type Contact struct {
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	Email   string `json:"email,omitempty"`
}

// PersonRef names a leadership or office-holding contact attached to an
// organisational record, e.g. a school's headteacher.
type PersonRef struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Officer is a company director or secretary from the officers register.
type Officer struct {
	Name        string `json:"name"`
	Role        string `json:"role,omitempty"`
	AppointedOn string `json:"appointed_on,omitempty"`
}

// RoleDetail carries the category-specific fields of an entity. It is a
// single sparse struct rather than an interface: only the fields relevant
// to the record's category are populated, everything else marshals away
// under omitempty. This keeps serialization round-trips and content
// hashing trivial.
type RoleDetail struct {
	// school
	Head           *PersonRef `json:"head,omitempty"`
	Phase          string     `json:"phase,omitempty"`
	OfstedRating   string     `json:"ofsted_rating,omitempty"`
	LocalAuthority string     `json:"local_authority,omitempty"`

	// company
	CompanyNumber string    `json:"company_number,omitempty"`
	CompanyStatus string    `json:"company_status,omitempty"`
	SICCodes      []string  `json:"sic_codes,omitempty"`
	Officers      []Officer `json:"officers,omitempty"`

	// charity
	CharityNumber string `json:"charity_number,omitempty"`
	TrusteesCount int    `json:"trustees_count,omitempty"`
	Activities    string `json:"activities,omitempty"`

	// parliament
	Party        string `json:"party,omitempty"`
	Constituency string `json:"constituency,omitempty"`
	House        string `json:"house,omitempty"`
	FullTitle    string `json:"full_title,omitempty"`
}

// LeadershipName returns the named leadership contact for the record:
// the head for schools, the first listed officer for companies, and the
// entity's own name for person records. Empty when no named contact
// exists.
func (r RoleDetail) LeadershipName() string {
	if r.Head != nil {
		return strings.TrimSpace(r.Head.Name)
	}
	if len(r.Officers) > 0 {
		return strings.TrimSpace(r.Officers[0].Name)
	}
	return ""
}

// Enrichment holds outreach-enrichment indicators attached after
// collection (funding/eligibility checks from the enriched regional
// exports). A missing flag means not-satisfied.
type Enrichment struct {
	FundingEligible    bool `json:"funding_eligible,omitempty"`
	EligibilityChecked bool `json:"eligibility_checked,omitempty"`
}

// Any reports whether at least one enrichment flag is set.
func (e Enrichment) Any() bool {
	return e.FundingEligible || e.EligibilityChecked
}

// SourceRef identifies where a record came from.
type SourceRef struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Date string `json:"date,omitempty"`

	// PublicRegister records whether the register is explicitly scoped to
	// public data. All current sources are public registers; the flag
	// exists so compliance stays evaluable per record.
	PublicRegister bool `json:"public_register"`
}

// Provenance stamps pipeline identity, a deterministic content hash, and
// the ingestion time onto a record.
type Provenance struct {
	Pipeline   string    `json:"pipeline"`
	SourceHash string    `json:"source_hash"`
	IngestedAt time.Time `json:"ingested_at"`
}

// GDPRFlags is the compliance metadata block.
type GDPRFlags struct {
	PublicOnlyContact      bool `json:"public_only_contact"`
	Minimised              bool `json:"minimised"`
	RectificationRequested bool `json:"rectification_requested"`
	TakedownRequested      bool `json:"takedown_requested"`
}

// Entity is the canonical unit of output: one normalized record from one
// source, stamped with confidence, provenance, and compliance metadata.
//
// Invariants:
//   - Name, Source.URL, Source.Name are non-empty
//   - ConfidenceScore is in [0,100], computed once at normalization
//   - Provenance.SourceHash is a deterministic function of the content
//     fields (timestamps excluded)
//   - Entities are immutable once persisted
type Entity struct {
	ID              string     `json:"id"`
	EntityType      EntityType `json:"entity_type"`
	Category        Category   `json:"category"`
	Name            string     `json:"name"`
	Address         Address    `json:"address"`
	Contact         Contact    `json:"contact"`
	RoleDetail      RoleDetail `json:"role_detail"`
	Enrichment      Enrichment `json:"enrichment"`
	ConfidenceScore int        `json:"confidence_score"`
	Provenance      Provenance `json:"provenance"`
	GDPRFlags       GDPRFlags  `json:"gdpr_flags"`
	Source          SourceRef  `json:"source"`
}

var (
	ErrMissingName       = errors.New("entity name is required")
	ErrMissingSource     = errors.New("entity source url and name are required")
	ErrMissingIngestedAt = errors.New("entity ingestion timestamp is required")
	ErrBadConfidence     = errors.New("confidence score out of range")
)

// Validate enforces the persistence invariants. Every entity must pass
// before it is written to an artifact.
func (e Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrMissingName
	}
	if e.Source.URL == "" || e.Source.Name == "" {
		return ErrMissingSource
	}
	if e.Provenance.IngestedAt.IsZero() {
		return ErrMissingIngestedAt
	}
	if e.ConfidenceScore < 0 || e.ConfidenceScore > 100 {
		return ErrBadConfidence
	}
	return nil
}
