package csql

import (
	"reflect"
	"testing"

	"github.com/openhire/openhire/core/pointers"
)

func TestFilter_Empty(t *testing.T) {

	inactive := []Filter{
		{},
		{ContainsColumn: "title", MinimumColumn: "salary", PositiveColumn: "equity"},
		{Positive: "false", PositiveColumn: "equity"},
		{Positive: "yes", PositiveColumn: "equity"},
		{Positive: "TRUE", PositiveColumn: "equity"},
	}
	for _, filter := range inactive {
		conditions, params := filter.Clause(0)
		if len(conditions) != 0 || len(params) != 0 {
			t.Fatalf("expected empty output for %+v, got %v %v", filter, conditions, params)
		}
	}
}

func TestFilter_MultiWordContains(t *testing.T) {

	filter := Filter{Contains: "soft eng", ContainsColumn: "title"}
	conditions, params := filter.Clause(0)

	// every word must independently match, not the phrase
	wantConditions := []string{"title ILIKE $1", "title ILIKE $2"}
	wantParams := []interface{}{"%soft%", "%eng%"}
	if !reflect.DeepEqual(conditions, wantConditions) {
		t.Fatalf("unexpected conditions: %v", conditions)
	}
	if !reflect.DeepEqual(params, wantParams) {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestFilter_PositiveOnlyLiteralTrue(t *testing.T) {

	filter := Filter{Positive: "true", PositiveColumn: "equity"}
	conditions, params := filter.Clause(0)
	if len(conditions) != 1 || len(params) != 0 {
		t.Fatalf("unexpected output: %v %v", conditions, params)
	}
	if conditions[0] != "(equity IS NOT NULL AND equity > 0)" {
		t.Fatalf("unexpected condition: %s", conditions[0])
	}
}

func TestFilter_CriterionOrderAndPositions(t *testing.T) {

	filter := Filter{
		Contains:       "senior engineer",
		ContainsColumn: "title",
		Minimum:        pointers.IntPtr(50000),
		MinimumColumn:  "salary",
		Maximum:        pointers.IntPtr(90000),
		MaximumColumn:  "salary",
		Positive:       "true",
		PositiveColumn: "equity",
	}
	conditions, params := filter.Clause(0)

	wantConditions := []string{
		"title ILIKE $1",
		"title ILIKE $2",
		"salary >= $3",
		"salary <= $4",
		"(equity IS NOT NULL AND equity > 0)",
	}
	if !reflect.DeepEqual(conditions, wantConditions) {
		t.Fatalf("unexpected conditions: %v", conditions)
	}
	wantParams := []interface{}{"%senior%", "%engineer%", 50000, 90000}
	if !reflect.DeepEqual(params, wantParams) {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestFilter_Offset(t *testing.T) {

	// placeholders continue the caller's parameter sequence
	filter := Filter{Minimum: pointers.IntPtr(100), MinimumColumn: "salary"}
	conditions, _ := filter.Clause(3)
	if conditions[0] != "salary >= $4" {
		t.Fatalf("unexpected condition with offset: %s", conditions[0])
	}
}
