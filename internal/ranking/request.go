package ranking

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// DecodeBatch reads a JSON array of bank objects.
//
// Anything that is not a non-empty array fails with ErrInvalidRequest; an
// element that is not an object fails with ErrInvalidInputData.
func DecodeBatch(r io.Reader) ([]contracts.RawBank, error) {
	dec := json.NewDecoder(r)

	var items []json.RawMessage
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after array", contracts.ErrInvalidRequest)
	}
	if len(items) == 0 {
		return nil, contracts.ErrInvalidRequest
	}

	banks := make([]contracts.RawBank, 0, len(items))
	for i, item := range items {
		var bank contracts.RawBank
		if err := json.Unmarshal(item, &bank); err != nil || bank == nil {
			return nil, &contracts.ValidationError{Index: i, Reason: "record is not an object"}
		}
		banks = append(banks, bank)
	}

	return banks, nil
}
