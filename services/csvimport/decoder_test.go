package csvimport

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	cserr "github.com/customeros/cardstack/internal/errors"
)

func TestDecodeTable_UTF8WithBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("姓,名,e-mail\n山田,太郎,yamada@example.com\n")...)

	table, err := DecodeTable(data)
	require.NoError(t, err)

	assert.Equal(t, EncodingUTF8, table.Encoding)
	assert.Equal(t, []string{"姓", "名", "e-mail"}, table.Headers)
	assert.Equal(t, 1, table.Len())
	value, ok := table.Get(0, "姓")
	assert.True(t, ok)
	assert.Equal(t, "山田", value)
}

func TestDecodeTable_FallsBackToCP932(t *testing.T) {
	text := "企業名,代表者名,メールアドレス\n株式会社テスト,鈴木 一郎,suzuki@example.com\n"
	encoded, err := japanese.ShiftJIS.NewEncoder().String(text)
	require.NoError(t, err)

	table, err := DecodeTable([]byte(encoded))
	require.NoError(t, err)

	assert.Equal(t, EncodingCP932, table.Encoding)
	value, ok := table.Get(0, "代表者名")
	assert.True(t, ok)
	assert.Equal(t, "鈴木 一郎", value)
}

func TestDecodeTable_UnreadableFile(t *testing.T) {
	_, err := DecodeTable([]byte{0xFF, 0xFE, 0xFD, ',', 0x80, '\n'})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cserr.ErrUnreadableFile))
}

func TestDecodeTable_EmptyFile(t *testing.T) {
	_, err := DecodeTable(nil)
	assert.True(t, errors.Is(err, cserr.ErrUnreadableFile))
}

func TestTableGet_BlankAndNanAreAbsent(t *testing.T) {
	table, err := DecodeTable([]byte("a,b,c,d\n  ,nan,NaN,x \n"))
	require.NoError(t, err)

	for _, column := range []string{"a", "b", "c", "missing"} {
		_, ok := table.Get(0, column)
		assert.False(t, ok, column)
	}
	value, ok := table.Get(0, "d")
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func TestTableGet_ShortRow(t *testing.T) {
	table, err := DecodeTable([]byte("a,b,c\n1\n"))
	require.NoError(t, err)

	_, ok := table.Get(0, "c")
	assert.False(t, ok)
	_, ok = table.Get(5, "a")
	assert.False(t, ok)
}
