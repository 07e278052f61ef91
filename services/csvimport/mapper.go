package csvimport

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/utils"
)

type NameState int

const (
	// NameAbsent means the row carries no name column value at all.
	NameAbsent NameState = iota
	// NameUnknown means the row had name columns but every part was blank.
	NameUnknown
	NamePresent
)

type PersonName struct {
	State NameState
	Value string
}

// ContactDraft is one mapped row. Nil fields were absent in the source and must not overwrite.
type ContactDraft struct {
	Row            int
	Email          string
	CompanyName    *string
	DepartmentName *string
	JobTitle       *string
	LastName       *string
	FirstName      *string
	PhoneNumber    *string
	URL            *string
	Name           PersonName
}

// MapRow maps a data row with the given schema. A blank email yields ErrRowSkipped.
func MapRow(table *Table, schema enum.ImportSchema, row int) (*ContactDraft, error) {
	var draft *ContactDraft
	switch schema {
	case enum.ImportSchemaCorporateList:
		draft = mapCorporateList(table, row)
	default:
		draft = mapContactExport(table, row)
	}

	if draft.Email == "" {
		return draft, errors.Wrapf(cserr.ErrRowSkipped, "line %d", draft.Row)
	}
	return draft, nil
}

func cell(table *Table, row int, column string) *string {
	if value, ok := table.Get(row, column); ok {
		return &value
	}
	return nil
}

func firstCell(table *Table, row int, columns ...string) *string {
	for _, column := range columns {
		if value := cell(table, row, column); value != nil {
			return value
		}
	}
	return nil
}

func normalizedURL(value *string) *string {
	if value == nil {
		return nil
	}
	url := utils.NormalizeURL(*value)
	return &url
}

func emailKey(table *Table, row int, column string) string {
	value, ok := table.Get(row, column)
	if !ok {
		return ""
	}
	return utils.NormalizeEmail(value)
}

func mapContactExport(table *Table, row int) *ContactDraft {
	draft := &ContactDraft{
		Row:            table.LineNumber(row),
		Email:          emailKey(table, row, colEmail),
		CompanyName:    cell(table, row, colCompany),
		DepartmentName: cell(table, row, colDepartment),
		JobTitle:       cell(table, row, colJobTitle),
		LastName:       cell(table, row, colLastName),
		FirstName:      cell(table, row, colFirstName),
		PhoneNumber:    firstCell(table, row, colMobilePhone, colOfficePhone),
		URL:            normalizedURL(firstCell(table, row, colCompanyURL, colWebsite, colURL)),
	}

	full := strings.TrimSpace(utils.GetOrDefault(draft.LastName, "") + " " + utils.GetOrDefault(draft.FirstName, ""))
	if full == "" {
		draft.Name = PersonName{State: NameUnknown}
	} else {
		draft.Name = PersonName{State: NamePresent, Value: full}
	}
	return draft
}

func mapCorporateList(table *Table, row int) *ContactDraft {
	draft := &ContactDraft{
		Row:            table.LineNumber(row),
		Email:          emailKey(table, row, colCorporateEmail),
		CompanyName:    cell(table, row, colCorporateName),
		DepartmentName: cell(table, row, colIndustry),
		JobTitle:       utils.StringPtr(representativeTitle),
		URL:            normalizedURL(cell(table, row, colCorporateURL)),
	}

	if phone := cell(table, row, colCorporatePhone); phone != nil {
		stripped := strings.TrimPrefix(*phone, "'")
		if !utils.IsBlank(stripped) {
			draft.PhoneNumber = &stripped
		}
	}

	if name := cell(table, row, colRepresentative); name != nil {
		draft.Name = PersonName{State: NamePresent, Value: *name}
	}
	return draft
}
