package ranking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// ValidateAndParse converts raw records into processed banks.
// All-or-nothing: the first bad record voids the batch.
func ValidateAndParse(banks []contracts.RawBank) ([]*contracts.ProcessedBank, error) {
	if len(banks) == 0 {
		return nil, contracts.ErrInvalidRequest
	}

	fields := contracts.RequiredFields()
	processed := make([]*contracts.ProcessedBank, 0, len(banks))

	for i, raw := range banks {
		name, err := parseName(raw)
		if err != nil {
			return nil, &contracts.ValidationError{Index: i, Field: contracts.FieldName, Reason: err.Error()}
		}

		bank := &contracts.ProcessedBank{
			Name:   name,
			Values: make(map[string]float64, len(contracts.RankedMetrics)),
		}

		for _, field := range fields {
			value, ok := raw[field]
			if !ok {
				return nil, &contracts.ValidationError{Index: i, Field: field, Reason: "missing"}
			}

			parsed, err := parseValue(value)
			if err != nil {
				return nil, &contracts.ValidationError{Index: i, Field: field, Reason: err.Error()}
			}

			if field == contracts.FieldLDR {
				bank.LDR = parsed
			} else {
				bank.Values[field] = parsed
			}
		}

		processed = append(processed, bank)
	}

	return processed, nil
}

func parseName(raw contracts.RawBank) (string, error) {
	value, ok := raw[contracts.FieldName]
	if !ok {
		return "", errors.New("missing")
	}

	// null would silently decode to ""
	if text := bytes.TrimSpace(value); len(text) == 0 || text[0] != '"' {
		return "", errors.New("not a string")
	}

	var name string
	if err := json.Unmarshal(value, &name); err != nil {
		return "", errors.New("not a string")
	}
	return name, nil
}

// parseValue accepts a JSON number or a JSON string holding a decimal number.
// NaN and infinities are rejected: they have no place in an ordering.
func parseValue(raw json.RawMessage) (float64, error) {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return 0, errors.New("empty value")
	}

	var s string
	switch c := text[0]; {
	case c == '"':
		if err := json.Unmarshal(text, &s); err != nil {
			return 0, fmt.Errorf("malformed string: %w", err)
		}
		s = strings.TrimSpace(s)
		if strings.ContainsAny(s, "xX_") {
			return 0, fmt.Errorf("not a decimal number: %q", s)
		}
	case c == '-' || (c >= '0' && c <= '9'):
		s = string(text)
	default:
		return 0, fmt.Errorf("not a number: %s", text)
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}

	return value, nil
}
