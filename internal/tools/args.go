package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// decodeArgs decodes loosely typed JSON arguments into out. Numbers and
// booleans given as strings are accepted so that the CLI can pass
// key=value pairs; unknown keys are rejected.
func decodeArgs(args map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

// intArg converts a decoded argument to an int without rounding. Whole JSON
// numbers and decimal strings are accepted; fractions, booleans and empty
// strings are not.
func intArg(field string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%q is out of range", field)
		}
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n < math.MinInt32 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%q must be an integer, got %v", field, n)
		}
		return int(n), nil
	case json.Number:
		i, err := strconv.Atoi(n.String())
		if err != nil {
			return 0, fmt.Errorf("%q must be an integer, got %s", field, n)
		}
		return i, nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("%q must be an integer, got %q", field, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%q must be an integer, got %T", field, v)
	}
}

func invalidArgs(err error) Result {
	return Result{Text: fmt.Sprintf("Invalid arguments: %v", err), IsError: true}
}

func requireArg(field, value string) error {
	if value == "" {
		return fmt.Errorf("%q is required", field)
	}
	return nil
}

// objectSchema builds a JSON schema for an argument object.
func objectSchema(properties map[string]any, required ...string) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}
