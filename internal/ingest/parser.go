package ingest

import (
	"encoding/csv"
	"strings"

	"sensorguard/internal/normalize"
)

const utf8BOM = "\ufeff"

// Parser extracts the reading token from one input line. The first token
// is the reading: first CSV column, first whitespace field, or the value
// key of a JSON object.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// ParseLine returns nil fields and a nil error for blank lines.
func (p *Parser) ParseLine(line string) (*normalize.ValueFields, error) {
	trim := strings.TrimSpace(strings.TrimPrefix(line, utf8BOM))
	if trim == "" {
		return nil, nil
	}
	if looksLikeJSON(trim) {
		if fields, err := parseJSON(trim); err == nil {
			fields.Raw = line
			return fields, nil
		}
	}
	if strings.Contains(trim, ",") {
		fields, err := parseCSV(trim)
		if err == nil {
			fields.Raw = line
			return fields, nil
		}
	}
	fields := parsePlain(trim)
	fields.Raw = line
	return fields, nil
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func parseJSON(line string) (*normalize.ValueFields, error) {
	return ParseJSONBytes([]byte(line))
}

func parseCSV(line string) (*normalize.ValueFields, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil {
		return nil, err
	}
	fields := &normalize.ValueFields{}
	if len(record) > 0 {
		fields.Token = record[0]
	}
	return fields, nil
}

func parsePlain(line string) *normalize.ValueFields {
	fields := &normalize.ValueFields{}
	tokens := strings.Fields(line)
	if len(tokens) > 0 {
		fields.Token = tokens[0]
	}
	return fields
}
