package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"

	"kosmos/internal/domain"
)

// hashContent is the subset of an entity that feeds the provenance hash:
// the normalized content fields, never timestamps or the provenance
// block itself. Two normalizations of byte-identical raw input hash the
// same; any content change changes the hash.
type hashContent struct {
	EntityType domain.EntityType `json:"entity_type"`
	Category   domain.Category   `json:"category"`
	Name       string            `json:"name"`
	Address    domain.Address    `json:"address"`
	Contact    domain.Contact    `json:"contact"`
	RoleDetail domain.RoleDetail `json:"role_detail"`
	SourceURL  string            `json:"source_url"`
	SourceName string            `json:"source_name"`
}

// SourceHash computes the deterministic content fingerprint: RFC 8785
// canonical JSON (sorted keys, fixed encoding) of the content fields,
// SHA-256, hex. Independent of field insertion order by construction.
func SourceHash(entity domain.Entity) (string, error) {
	raw, err := json.Marshal(hashContent{
		EntityType: entity.EntityType,
		Category:   entity.Category,
		Name:       entity.Name,
		Address:    entity.Address,
		Contact:    entity.Contact,
		RoleDetail: entity.RoleDetail,
		SourceURL:  entity.Source.URL,
		SourceName: entity.Source.Name,
	})
	if err != nil {
		return "", fmt.Errorf("marshal hash content: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize hash content: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// Tag stamps provenance onto an entity: pipeline identity, content hash,
// and the ingestion time, recorded once and never recomputed.
func Tag(entity domain.Entity, pipeline string, now time.Time) (domain.Provenance, error) {
	hash, err := SourceHash(entity)
	if err != nil {
		return domain.Provenance{}, err
	}
	return domain.Provenance{
		Pipeline:   pipeline,
		SourceHash: hash,
		IngestedAt: now,
	}, nil
}
