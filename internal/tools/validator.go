package tools

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Args holds decoded tool arguments. Values are the JSON types produced by
// decodeArgs; numbers are json.Number.
type Args map[string]any

// String returns the named argument as a string, or "" if absent.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Number returns the named argument as a json.Number, or "" if absent.
func (a Args) Number(key string) json.Number {
	n, _ := a[key].(json.Number)
	return n
}

// Address returns the named argument parsed as a hex address. Validation has
// already confirmed the format when the schema declares it.
func (a Args) Address(key string) common.Address {
	return common.HexToAddress(a.String(key))
}

// Has reports whether the argument was supplied.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// validateArgs checks args against the subset of JSON Schema the tool specs
// use: required, type (string/number/integer/boolean), format "address", and
// minimum/exclusiveMinimum/maximum on numbers. All checks run before any
// handler code, so validation failures provably cause no side effects.
// Unknown arguments are ignored.
func validateArgs(args Args, schema map[string]any) error {
	if schema == nil {
		return nil
	}

	properties, _ := schema["properties"].(map[string]any)

	if required, ok := schema["required"].([]string); ok {
		for _, name := range required {
			if !args.Has(name) {
				return fmt.Errorf("missing required argument: %s", name)
			}
		}
	}

	for name, raw := range properties {
		value, present := args[name]
		if !present {
			continue
		}
		prop, _ := raw.(map[string]any)
		if prop == nil {
			continue
		}
		if err := validateValue(name, value, prop); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(name string, value any, prop map[string]any) error {
	typ, _ := prop["type"].(string)

	switch typ {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("argument %s must be a string", name)
		}
		if format, _ := prop["format"].(string); format == "address" {
			if !common.IsHexAddress(s) {
				return fmt.Errorf("argument %s is not a valid address: %s", name, s)
			}
		}
		if minLen, ok := prop["minLength"].(int); ok && len(s) < minLen {
			return fmt.Errorf("argument %s must not be empty", name)
		}
	case "number", "integer":
		num, ok := value.(json.Number)
		if !ok {
			return fmt.Errorf("argument %s must be a number", name)
		}
		f, ok := new(big.Float).SetString(num.String())
		if !ok {
			return fmt.Errorf("argument %s is not a valid number: %s", name, num)
		}
		if typ == "integer" {
			if _, err := num.Int64(); err != nil {
				return fmt.Errorf("argument %s must be an integer", name)
			}
		}
		if min, ok := numberBound(prop["minimum"]); ok && f.Cmp(min) < 0 {
			return fmt.Errorf("argument %s must be at least %s", name, min.Text('f', -1))
		}
		if min, ok := numberBound(prop["exclusiveMinimum"]); ok && f.Cmp(min) <= 0 {
			return fmt.Errorf("argument %s must be greater than %s", name, min.Text('f', -1))
		}
		if max, ok := numberBound(prop["maximum"]); ok && f.Cmp(max) > 0 {
			return fmt.Errorf("argument %s must be at most %s", name, max.Text('f', -1))
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("argument %s must be a boolean", name)
		}
	}
	return nil
}

func numberBound(v any) (*big.Float, bool) {
	switch b := v.(type) {
	case int:
		return new(big.Float).SetInt64(int64(b)), true
	case float64:
		return new(big.Float).SetFloat64(b), true
	}
	return nil, false
}
