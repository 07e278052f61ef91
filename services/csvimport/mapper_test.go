package csvimport

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/customeros/cardstack/internal/enum"
	cserr "github.com/customeros/cardstack/internal/errors"
)

func decode(t *testing.T, text string) *Table {
	t.Helper()
	table, err := DecodeTable([]byte(text))
	require.NoError(t, err)
	return table
}

func TestMapRow_ContactExport(t *testing.T) {
	table := decode(t, "姓,名,会社名,部署名,役職,e-mail,TEL会社,携帯電話,会社URL\n"+
		"山田,太郎,株式会社テスト,開発部,マネージャー,Yamada@Example.com,03-1234-5678,090-1234-5678,www.example.com\n"+
		"佐藤,花子,テスト株式会社,,主任,sato@example.com,03-8765-4321,nan,https://test.co.jp\n")

	first, err := MapRow(table, enum.ImportSchemaContactExport, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, "yamada@example.com", first.Email)
	assert.Equal(t, NamePresent, first.Name.State)
	assert.Equal(t, "山田 太郎", first.Name.Value)
	assert.Equal(t, "090-1234-5678", *first.PhoneNumber)
	assert.Equal(t, "http://www.example.com", *first.URL)
	assert.Equal(t, "開発部", *first.DepartmentName)

	second, err := MapRow(table, enum.ImportSchemaContactExport, 1)
	require.NoError(t, err)
	assert.Equal(t, "03-8765-4321", *second.PhoneNumber)
	assert.Nil(t, second.DepartmentName)
	assert.Equal(t, "https://test.co.jp", *second.URL)
}

func TestMapRow_ContactExportUnknownName(t *testing.T) {
	table := decode(t, "姓,名,e-mail\n,,anon@example.com\n")

	draft, err := MapRow(table, enum.ImportSchemaContactExport, 0)
	require.NoError(t, err)
	assert.Equal(t, NameUnknown, draft.Name.State)
	assert.Empty(t, draft.Name.Value)
}

func TestMapRow_ContactExportURLFallbackColumns(t *testing.T) {
	table := decode(t, "e-mail,Webサイト,URL\na@example.com,,https://url.example.com\n")

	draft, err := MapRow(table, enum.ImportSchemaContactExport, 0)
	require.NoError(t, err)
	assert.Equal(t, "https://url.example.com", *draft.URL)
}

func TestMapRow_CorporateList(t *testing.T) {
	table := decode(t, "企業名,代表者名,電話番号,企業ホームページURL,業種（分類１）,メールアドレス\n"+
		"株式会社サンプル,鈴木 一郎,'0312345678,www.sample.co.jp,製造業,info@sample.co.jp\n")

	draft, err := MapRow(table, enum.ImportSchemaCorporateList, 0)
	require.NoError(t, err)
	assert.Equal(t, "info@sample.co.jp", draft.Email)
	assert.Equal(t, "株式会社サンプル", *draft.CompanyName)
	assert.Equal(t, "鈴木 一郎", draft.Name.Value)
	assert.Equal(t, "0312345678", *draft.PhoneNumber)
	assert.Equal(t, "http://www.sample.co.jp", *draft.URL)
	assert.Equal(t, "製造業", *draft.DepartmentName)
	assert.Equal(t, "代表者", *draft.JobTitle)
}

func TestMapRow_CorporateListBlankName(t *testing.T) {
	table := decode(t, "企業名,代表者名,メールアドレス\n株式会社サンプル,,info@sample.co.jp\n")

	draft, err := MapRow(table, enum.ImportSchemaCorporateList, 0)
	require.NoError(t, err)
	assert.Equal(t, NameAbsent, draft.Name.State)
}

func TestMapRow_BlankEmailIsSkipped(t *testing.T) {
	table := decode(t, "姓,名,e-mail\n山田,太郎,nan\n佐藤,花子,\n")

	for row := 0; row < table.Len(); row++ {
		_, err := MapRow(table, enum.ImportSchemaContactExport, row)
		assert.True(t, errors.Is(err, cserr.ErrRowSkipped))
	}
}
