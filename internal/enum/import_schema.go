package enum

type ImportSchema string

const (
	// ImportSchemaCorporateList is one row per company with a single representative name column.
	ImportSchemaCorporateList ImportSchema = "corporate_list"
	// ImportSchemaContactExport is a per-contact export with split name and phone columns.
	ImportSchemaContactExport ImportSchema = "contact_export"
	ImportSchemaUnrecognized  ImportSchema = "unrecognized"
)

func (s ImportSchema) String() string {
	return string(s)
}

type ContactSource string

const (
	ContactSourceImport ContactSource = "import"
	ContactSourceCard   ContactSource = "card"
	ContactSourceManual ContactSource = "manual"
)

func (s ContactSource) String() string {
	return string(s)
}
