package csvimport

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"

	cserr "github.com/customeros/cardstack/internal/errors"
	"github.com/customeros/cardstack/internal/utils"
)

const (
	EncodingUTF8  = "utf-8-sig"
	EncodingCP932 = "cp932"
)

var errInvalidSequence = errors.New("invalid byte sequence")

type candidate struct {
	name   string
	decode func(data []byte) (string, error)
}

// candidates are tried in order; each must reject input it cannot decode exactly.
var candidates = []candidate{
	{name: EncodingUTF8, decode: decodeUTF8},
	{name: EncodingCP932, decode: decodeCP932},
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidSequence
	}
	out, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func decodeCP932(data []byte) (string, error) {
	return decodeStrict(japanese.ShiftJIS, data)
}

// decodeStrict fails when the decoder had to substitute a replacement character.
func decodeStrict(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", errInvalidSequence
	}
	return string(out), nil
}

// Table is a decoded delimited file. Blank and "nan" cells are already absent.
type Table struct {
	Encoding string
	Headers  []string
	index    map[string]int
	rows     [][]string
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) HasColumn(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Get returns the trimmed cell value and whether the cell carries data.
func (t *Table) Get(row int, column string) (string, bool) {
	if row < 0 || row >= len(t.rows) {
		return "", false
	}
	col, ok := t.index[column]
	if !ok || col >= len(t.rows[row]) {
		return "", false
	}
	value := t.rows[row][col]
	if utils.IsBlank(value) {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// LineNumber is the 1-based line of a data row in the source file, counting the header.
func (t *Table) LineNumber(row int) int {
	return row + 2
}

// DecodeTable returns the first candidate decoding that also parses as a table with a header row.
func DecodeTable(data []byte) (*Table, error) {
	var failures []string
	for _, c := range candidates {
		text, err := c.decode(data)
		if err != nil {
			failures = append(failures, c.name+": "+err.Error())
			continue
		}
		table, err := parseTable(text)
		if err != nil {
			failures = append(failures, c.name+": "+err.Error())
			continue
		}
		table.Encoding = c.name
		return table, nil
	}

	detected := "unknown"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil && result != nil {
		detected = result.Charset
	}
	return nil, errors.Wrapf(cserr.ErrUnreadableFile, "detected charset %s (%s)", detected, strings.Join(failures, "; "))
}

func parseTable(text string) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse header")
	}

	table := &Table{index: make(map[string]int, len(header))}
	hasColumn := false
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		table.Headers = append(table.Headers, h)
		if h == "" {
			continue
		}
		hasColumn = true
		if _, exists := table.index[h]; !exists {
			table.index[h] = i
		}
	}
	if !hasColumn {
		return nil, errors.New("missing header row")
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse rows")
		}
		table.rows = append(table.rows, record)
	}

	return table, nil
}
