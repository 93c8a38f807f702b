// Package readiness derives the tri-state outreach-priority label from
// already-normalized entity fields. Pure and total: no I/O, no side
// effects, and every entity classifies to exactly one level.
package readiness

import (
	"strings"

	"kosmos/internal/domain"
)

// Level is the outreach readiness of an entity.
type Level string

const (
	// Complete: contact email, a named leadership contact, and at least
	// one enrichment flag all present.
	Complete Level = "complete"

	// PartialContact: contact email present but the full conjunction
	// fails.
	PartialContact Level = "partial"

	// NoContact: no contact email.
	NoContact Level = "none"
)

// Classify applies the canonical readiness rule. A missing enrichment
// flag counts as not-satisfied; the rule is a strict conjunction.
func Classify(entity domain.Entity) Level {
	email := strings.TrimSpace(entity.Contact.Email)
	if email == "" {
		return NoContact
	}
	if leadershipName(entity) != "" && entity.Enrichment.Any() {
		return Complete
	}
	return PartialContact
}

// leadershipName resolves the named contact: person records name
// themselves, organisational records name their head or first officer.
func leadershipName(entity domain.Entity) string {
	if entity.EntityType == domain.EntityPerson {
		return strings.TrimSpace(entity.Name)
	}
	return entity.RoleDetail.LeadershipName()
}
