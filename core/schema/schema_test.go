package schema_test

import (
	"testing"

	"github.com/openhire/openhire/core/schema"
)

const (
	refHandle = `{ "$id": "http://openhire.io/refs/handle.json",
	               "type": "string", "maxLength": 25 }`

	companySchema = `
	{ "$id": "http://openhire.io/test/company.json",
	  "type": "object",
	  "required": ["handle", "name"],
	  "properties": {
		"handle": { "$ref": "http://openhire.io/refs/handle.json" },
		"name": { "type": "string" },
		"numEmployees": { "type": "integer", "minimum": 0 }
	  },
	  "additionalProperties": false
	}`
)

func TestValidateBytes(t *testing.T) {
	v, err := schema.NewValidator([]string{companySchema}, []string{refHandle})
	if err != nil {
		t.Fatalf("no error expected when creating validator, got %v", err)
	}

	schemaID := "http://openhire.io/test/company.json"

	valid := []byte(`{"handle":"acme","name":"Acme Corp","numEmployees":12}`)
	if err := v.ValidateBytes(valid, schemaID); err != nil {
		t.Fatalf("%s is expected to be valid, reported error was: %v", valid, err)
	}

	invalid := [][]byte{
		[]byte(`{"name":"Acme Corp"}`),                                          // handle missing
		[]byte(`{"handle":"acme","name":"Acme Corp","numEmployees":-1}`),        // below minimum
		[]byte(`{"handle":"acme","name":"Acme Corp","revenue":1}`),              // unknown field
		[]byte(`{"handle":"a-very-long-handle-over-the-limit","name":"Acme"}`),  // ref violated
		[]byte(`{"handle":"acme","name":"Acme Corp"`),                           // not even json
	}
	for _, body := range invalid {
		if err := v.ValidateBytes(body, schemaID); err == nil {
			t.Fatalf("%s is expected to be invalid", body)
		}
	}

	if err := v.ValidateBytes(valid, "http://openhire.io/test/unknown.json"); err == nil {
		t.Fatal("validation against an unknown schema must fail")
	}
}

func TestHasSchema(t *testing.T) {
	v, err := schema.NewValidator([]string{companySchema}, []string{refHandle})
	if err != nil {
		t.Fatalf("no error expected when creating validator, got %v", err)
	}

	if !v.HasSchema("http://openhire.io/test/company.json") {
		t.Fatal("company schema is expected to be available")
	}
	if v.HasSchema("http://openhire.io/refs/handle.json") {
		t.Fatal("refs are not top-level schemas")
	}
}

func TestNewValidator_RequiresID(t *testing.T) {
	if _, err := schema.NewValidator([]string{`{"type":"object"}`}, nil); err == nil {
		t.Fatal("a schema without $id must be rejected")
	}
}
