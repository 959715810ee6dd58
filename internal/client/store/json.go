package store

import (
	"encoding/json"
	"fmt"

	"github.com/fieldsync/fieldsync/internal/common"
)

// SetField returns a copy of the JSON object body with field set to value.
// An empty body is treated as {}.
func SetField(body json.RawMessage, field string, value any) (json.RawMessage, error) {
	obj := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, fmt.Errorf("%w: body is not a JSON object", common.ErrorIncorrectPayload)
		}
		if obj == nil {
			obj = map[string]json.RawMessage{}
		}
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorIncorrectPayload, err)
	}
	obj[field] = raw
	return json.Marshal(obj)
}
