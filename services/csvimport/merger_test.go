package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/customeros/cardstack/internal/enum"
	"github.com/customeros/cardstack/internal/models"
	"github.com/customeros/cardstack/internal/utils"
)

func TestMerge_NewContact(t *testing.T) {
	draft := &ContactDraft{
		Email:       "new@example.com",
		CompanyName: utils.StringPtr("株式会社テスト"),
		Name:        PersonName{State: NameUnknown},
	}

	merged := Merge(nil, draft)

	assert.Equal(t, "new@example.com", merged.Email)
	assert.Equal(t, "株式会社テスト", merged.CompanyName)
	assert.Equal(t, models.NoImageReference, *merged.ImagePath)
	assert.Equal(t, enum.ContactSourceImport, merged.Source)
	assert.Empty(t, merged.PersonName)
	assert.Equal(t, models.UnknownNamePlaceholder, merged.DisplayName())
}

func TestMerge_ExistingKeepsValuesForAbsentFields(t *testing.T) {
	existing := &models.Contact{
		ID:          "cntc_1",
		Email:       "old@example.com",
		CompanyName: "旧 会社",
		PhoneNumber: "03-0000-0000",
		PersonName:  "旧 氏名",
		URL:         "https://old.example.com",
		ImagePath:   utils.StringPtr("cards/acme/abc.jpg"),
	}
	draft := &ContactDraft{
		Email:       "old@example.com",
		CompanyName: utils.StringPtr("新 会社"),
		Name:        PersonName{State: NameUnknown},
	}

	merged := Merge(existing, draft)

	assert.Equal(t, "cntc_1", merged.ID)
	assert.Equal(t, "新 会社", merged.CompanyName)
	assert.Equal(t, "03-0000-0000", merged.PhoneNumber)
	assert.Equal(t, "旧 氏名", merged.PersonName)
	assert.Equal(t, "https://old.example.com", merged.URL)
	assert.Equal(t, "cards/acme/abc.jpg", *merged.ImagePath)
	assert.Equal(t, "旧 会社", existing.CompanyName)
}

func TestMerge_PresentNameOverwrites(t *testing.T) {
	existing := &models.Contact{Email: "a@example.com", PersonName: "旧 氏名"}
	merged := Merge(existing, &ContactDraft{Email: "a@example.com", Name: PersonName{State: NamePresent, Value: "新 氏名"}})
	assert.Equal(t, "新 氏名", merged.PersonName)
}
