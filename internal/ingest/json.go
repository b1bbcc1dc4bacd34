package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sensorguard/internal/normalize"
)

var errNoValueKey = errors.New("json object has no value key")

var valueKeys = []string{"value", "reading", "v"}

func ParseJSONBytes(data []byte) (*normalize.ValueFields, error) {
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return ParseJSONMap(obj)
}

func ParseJSONMap(obj map[string]interface{}) (*normalize.ValueFields, error) {
	lowered := make(map[string]interface{}, len(obj))
	for key, val := range obj {
		lowered[strings.ToLower(key)] = val
	}
	for _, key := range valueKeys {
		val, ok := lowered[key]
		if !ok || val == nil {
			continue
		}
		return &normalize.ValueFields{Token: formatJSONValue(val)}, nil
	}
	return nil, errNoValueKey
}

func formatJSONValue(val interface{}) string {
	switch v := val.(type) {
	case float64:
		return fmt.Sprintf("%v", v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
