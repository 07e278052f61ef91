package csvimport

import (
	"github.com/customeros/cardstack/internal/enum"
)

// Corporate list columns.
const (
	colCorporateName  = "企業名"
	colRepresentative = "代表者名"
	colCorporateEmail = "メールアドレス"
	colCorporatePhone = "電話番号"
	colCorporateURL   = "企業ホームページURL"
	colIndustry       = "業種（分類１）"

	representativeTitle = "代表者"
)

// Contact export columns.
const (
	colLastName    = "姓"
	colFirstName   = "名"
	colCompany     = "会社名"
	colDepartment  = "部署名"
	colJobTitle    = "役職"
	colEmail       = "e-mail"
	colOfficePhone = "TEL会社"
	colMobilePhone = "携帯電話"
	colCompanyURL  = "会社URL"
	colWebsite     = "Webサイト"
	colURL         = "URL"
)

var contactExportVocabulary = []string{
	colLastName, colFirstName, colCompany, colDepartment, colJobTitle, colEmail,
	colOfficePhone, colMobilePhone, colCompanyURL, colWebsite, colURL,
}

// Classification is the closed result of inspecting a header set.
type Classification struct {
	Schema enum.ImportSchema
}

// Unrecognized reports a header set matching neither vocabulary.
func (c Classification) Unrecognized() bool {
	return c.Schema == enum.ImportSchemaUnrecognized
}

// MappingSchema is the field mapping applied to rows; unrecognized headers map as contact exports.
func (c Classification) MappingSchema() enum.ImportSchema {
	if c.Schema == enum.ImportSchemaCorporateList {
		return enum.ImportSchemaCorporateList
	}
	return enum.ImportSchemaContactExport
}

func Classify(headers []string) Classification {
	set := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		set[h] = struct{}{}
	}
	has := func(column string) bool {
		_, ok := set[column]
		return ok
	}

	if has(colCorporateName) && has(colRepresentative) {
		return Classification{Schema: enum.ImportSchemaCorporateList}
	}
	for _, column := range contactExportVocabulary {
		if has(column) {
			return Classification{Schema: enum.ImportSchemaContactExport}
		}
	}
	return Classification{Schema: enum.ImportSchemaUnrecognized}
}
