package dto

import "github.com/customeros/cardstack/internal/enum"

type ImportResult struct {
	ImportID      string            `json:"importId"`
	Created       int               `json:"created"`
	Updated       int               `json:"updated"`
	Skipped       int               `json:"skipped"`
	SkippedRows   []int             `json:"skippedRows"`
	Schema        enum.ImportSchema `json:"schema"`
	SchemaWarning bool              `json:"schemaWarning"`
	Encoding      string            `json:"encoding"`
}

// ContactUpdateRequest is a manual edit; nil fields are left unchanged.
type ContactUpdateRequest struct {
	Email          *string `json:"email" binding:"omitempty,email"`
	CompanyName    *string `json:"companyName"`
	DepartmentName *string `json:"departmentName"`
	JobTitle       *string `json:"jobTitle"`
	PersonName     *string `json:"personName"`
	PhoneNumber    *string `json:"phoneNumber"`
	URL            *string `json:"url"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}
