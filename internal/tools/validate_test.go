package tools

import "testing"

func TestValidateAndCoerce_StringListAcceptsInterfaceSlice(t *testing.T) {
	schema := []Field{{Name: "tags", Type: TypeStringList, Required: true}}
	params := map[string]interface{}{"tags": []interface{}{"a", "b"}}

	out, err := validateAndCoerce(schema, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags, ok := out["tags"].([]string)
	if !ok || len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Fatalf("unexpected tags: %#v", out["tags"])
	}
}

func TestValidateAndCoerce_RejectsNonStringInList(t *testing.T) {
	schema := []Field{{Name: "tags", Type: TypeStringList, Required: true}}
	params := map[string]interface{}{"tags": []interface{}{"a", 7}}

	_, err := validateAndCoerce(schema, params)
	if err == nil {
		t.Fatal("expected error for non-string list entry")
	}
}

func TestValidateAndCoerce_OptionalFieldMissingIsFine(t *testing.T) {
	schema := []Field{
		{Name: "required_field", Type: TypeString, Required: true},
		{Name: "optional_field", Type: TypeInt, Required: false},
	}
	params := map[string]interface{}{"required_field": "present"}

	out, err := validateAndCoerce(schema, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := out["optional_field"]; present {
		t.Fatal("optional_field should be absent when not supplied")
	}
}

func TestValidateAndCoerce_RejectsFractionalFloatAsInt(t *testing.T) {
	schema := []Field{{Name: "n", Type: TypeInt, Required: true}}
	params := map[string]interface{}{"n": 3.5}

	_, err := validateAndCoerce(schema, params)
	if err == nil {
		t.Fatal("expected error coercing 3.5 into int")
	}
}

func TestValidateAndCoerce_ReportsAllBadFieldsTogether(t *testing.T) {
	schema := []Field{
		{Name: "a", Type: TypeString, Required: true},
		{Name: "b", Type: TypeInt, Required: true},
	}
	_, err := validateAndCoerce(schema, map[string]interface{}{"b": "not an int"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(err.Fields) != 2 {
		t.Fatalf("expected both bad fields reported, got %#v", err.Fields)
	}
}
