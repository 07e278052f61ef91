package csvimport

import (
	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/utils"
)

// Merge applies a draft onto the existing row, or builds a new one when existing is nil.
// Absent draft fields and non-present names keep the existing value.
func Merge(existing *models.Contact, draft *ContactDraft) *models.Contact {
	var merged models.Contact
	if existing != nil {
		merged = *existing
	} else {
		merged = models.Contact{
			ImagePath: utils.StringPtr(models.NoImageReference),
			Source:    enum.ContactSourceImport,
		}
	}

	if draft.Email != "" {
		merged.Email = draft.Email
	}
	overlay(&merged.CompanyName, draft.CompanyName)
	overlay(&merged.DepartmentName, draft.DepartmentName)
	overlay(&merged.JobTitle, draft.JobTitle)
	overlay(&merged.LastName, draft.LastName)
	overlay(&merged.FirstName, draft.FirstName)
	overlay(&merged.PhoneNumber, draft.PhoneNumber)
	overlay(&merged.URL, draft.URL)

	if draft.Name.State == NamePresent {
		merged.PersonName = draft.Name.Value
	}
	return &merged
}

func overlay(target *string, incoming *string) {
	if incoming == nil || utils.IsBlank(*incoming) {
		return
	}
	*target = *incoming
}
