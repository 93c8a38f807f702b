package normalize

import "kosmos/internal/domain"

// Flag derives the compliance block for a record. Organisational
// entities and explicitly-public office holders (elected officials,
// company officers) carry public-only contact data. The decision is
// evaluated per record from the source's register scope. None of the
// current sources cover private individuals, but the branch stays live
// rather than hard-coded.
func Flag(entity domain.Entity) domain.GDPRFlags {
	publicOnly := entity.Source.PublicRegister
	if entity.EntityType == domain.EntityOrganisation {
		publicOnly = true
	}
	return domain.GDPRFlags{
		PublicOnlyContact:      publicOnly,
		Minimised:              false,
		RectificationRequested: false,
		TakedownRequested:      false,
	}
}
