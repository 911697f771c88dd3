package tools

import (
	"fmt"

	"github.com/DEVCOACH/internal/domain"
)

// validateAndCoerce checks params against schema, filling in coerced,
// already-typed values for every declared field present in params.
// Missing required fields and type mismatches that can't be coerced are
// reported together as a single InvalidParameters error naming every
// offending field (§9 "a single validator performs coercion").
func validateAndCoerce(schema []Field, params map[string]interface{}) (map[string]interface{}, *domain.CoordError) {
	out := make(map[string]interface{}, len(params))
	var badFields []string

	for _, field := range schema {
		raw, present := params[field.Name]
		if !present {
			if field.Required {
				badFields = append(badFields, field.Name)
			}
			continue
		}

		coerced, ok := coerce(field.Type, raw)
		if !ok {
			badFields = append(badFields, field.Name)
			continue
		}
		out[field.Name] = coerced
	}

	if len(badFields) > 0 {
		return nil, domain.Invalid(
			fmt.Sprintf("invalid or missing fields: %v", badFields), badFields...,
		)
	}
	return out, nil
}

func coerce(t FieldType, raw interface{}) (interface{}, bool) {
	switch t {
	case TypeString:
		s, ok := raw.(string)
		return s, ok
	case TypeBool:
		b, ok := raw.(bool)
		return b, ok
	case TypeInt:
		switch v := raw.(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			if v == float64(int(v)) {
				return int(v), true
			}
		}
		return nil, false
	case TypeFloat:
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		}
		return nil, false
	case TypeStringList:
		switch v := raw.(type) {
		case []string:
			return v, true
		case []interface{}:
			out := make([]string, 0, len(v))
			for _, item := range v {
				s, ok := item.(string)
				if !ok {
					return nil, false
				}
				out = append(out, s)
			}
			return out, true
		}
		return nil, false
	case TypeObject:
		m, ok := raw.(map[string]interface{})
		return m, ok
	default:
		return nil, false
	}
}
