package enum

type EntityType string

const (
	CONTACT        EntityType = "CONTACT"
	CONTACT_IMPORT EntityType = "CONTACT_IMPORT"
	HISTORY        EntityType = "HISTORY"
	OUTREACH_BATCH EntityType = "OUTREACH_BATCH"
)

func (entityType EntityType) String() string {
	return string(entityType)
}

func GetEntityType(s string) EntityType {
	return EntityType(s)
}
