package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// FromYAML reads a YAML sequence of bank mappings.
// Error classification follows the JSON request body.
func FromYAML(r io.Reader) ([]contracts.RawBank, error) {
	var items []interface{}
	if err := yaml.NewDecoder(r).Decode(&items); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	if len(items) == 0 {
		return nil, contracts.ErrInvalidRequest
	}

	banks := make([]contracts.RawBank, 0, len(items))
	for i, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			return nil, &contracts.ValidationError{Index: i, Reason: "record is not a mapping"}
		}

		bank := make(contracts.RawBank, len(fields))
		for key, value := range fields {
			data, err := json.Marshal(value)
			if err != nil {
				return nil, &contracts.ValidationError{Index: i, Field: key, Reason: err.Error()}
			}
			bank[key] = data
		}
		banks = append(banks, bank)
	}

	return banks, nil
}
