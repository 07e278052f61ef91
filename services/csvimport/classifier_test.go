package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/customeros/cardstack/internal/enum"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		headers      []string
		schema       enum.ImportSchema
		mapping      enum.ImportSchema
		unrecognized bool
	}{
		{
			name:    "corporate list",
			headers: []string{"企業名", "代表者名", "メールアドレス"},
			schema:  enum.ImportSchemaCorporateList,
			mapping: enum.ImportSchemaCorporateList,
		},
		{
			name:    "corporate list in any order",
			headers: []string{"電話番号", "代表者名", "業種（分類１）", "企業名"},
			schema:  enum.ImportSchemaCorporateList,
			mapping: enum.ImportSchemaCorporateList,
		},
		{
			name:    "only one corporate column",
			headers: []string{"企業名", "e-mail"},
			schema:  enum.ImportSchemaContactExport,
			mapping: enum.ImportSchemaContactExport,
		},
		{
			name:    "contact export",
			headers: []string{"姓", "名", "会社名", "e-mail"},
			schema:  enum.ImportSchemaContactExport,
			mapping: enum.ImportSchemaContactExport,
		},
		{
			name:         "unrecognized",
			headers:      []string{"foo", "bar"},
			schema:       enum.ImportSchemaUnrecognized,
			mapping:      enum.ImportSchemaContactExport,
			unrecognized: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.headers)
			assert.Equal(t, tt.schema, c.Schema)
			assert.Equal(t, tt.mapping, c.MappingSchema())
			assert.Equal(t, tt.unrecognized, c.Unrecognized())
		})
	}
}
