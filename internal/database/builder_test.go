package database

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildInsert_SortsColumnsDeterministically(t *testing.T) {
	query, args, err := buildInsert("customer", map[string]any{
		"telephone": "5551234",
		"name":      "Alice",
		"email":     "alice@example.com",
	})
	if err != nil {
		t.Fatalf("buildInsert returned error: %v", err)
	}

	want := "INSERT INTO customer (email, name, telephone) VALUES (?, ?, ?)"
	if query != want {
		t.Fatalf("expected query %q, got %q", want, query)
	}
	if !reflect.DeepEqual(args, []any{"alice@example.com", "Alice", "5551234"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildInsert_RejectsEmptyValues(t *testing.T) {
	if _, _, err := buildInsert("customer", map[string]any{}); !errors.Is(err, ErrNoValues) {
		t.Fatalf("expected ErrNoValues, got %v", err)
	}
}

func TestBuildInsert_RejectsBadIdentifier(t *testing.T) {
	if _, _, err := buildInsert("customer", map[string]any{"name; DROP TABLE customer": "x"}); err == nil {
		t.Fatal("expected error for invalid column identifier")
	}
	if _, _, err := buildInsert("customer--", map[string]any{"name": "x"}); err == nil {
		t.Fatal("expected error for invalid table identifier")
	}
}

func TestBuildSelect_NoColumnsNoConditions(t *testing.T) {
	query, args, err := buildSelect("product", nil, nil)
	if err != nil {
		t.Fatalf("buildSelect returned error: %v", err)
	}
	if query != "SELECT * FROM product" {
		t.Fatalf("unexpected query: %q", query)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestBuildSelect_ConditionsJoinedWithAnd(t *testing.T) {
	query, args, err := buildSelect("session", []string{"id", "token"}, map[string]any{
		"token": "abc",
		"id":    int64(7),
	})
	if err != nil {
		t.Fatalf("buildSelect returned error: %v", err)
	}

	want := "SELECT id, token FROM session WHERE id = ? AND token = ?"
	if query != want {
		t.Fatalf("expected query %q, got %q", want, query)
	}
	if !reflect.DeepEqual(args, []any{int64(7), "abc"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildUpdate_RequiresValuesAndConditions(t *testing.T) {
	if _, _, err := buildUpdate("banner", map[string]any{}, map[string]any{"alias": "sale"}); !errors.Is(err, ErrNoValues) {
		t.Fatalf("expected ErrNoValues, got %v", err)
	}
	if _, _, err := buildUpdate("banner", map[string]any{"title": "x"}, map[string]any{}); !errors.Is(err, ErrNoConditions) {
		t.Fatalf("expected ErrNoConditions, got %v", err)
	}
	if _, _, err := buildUpdate("banner", map[string]any{"title": "x"}, nil); !errors.Is(err, ErrNoConditions) {
		t.Fatalf("expected ErrNoConditions for nil conditions, got %v", err)
	}
}

func TestBuildUpdate_Statement(t *testing.T) {
	query, args, err := buildUpdate("session",
		map[string]any{"customer": int64(7), "authorized": true},
		map[string]any{"id": int64(3)})
	if err != nil {
		t.Fatalf("buildUpdate returned error: %v", err)
	}

	want := "UPDATE session SET authorized = ?, customer = ? WHERE id = ?"
	if query != want {
		t.Fatalf("expected query %q, got %q", want, query)
	}
	if !reflect.DeepEqual(args, []any{true, int64(7), int64(3)}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestBuildDelete_RequiresConditions(t *testing.T) {
	if _, _, err := buildDelete("session", nil); !errors.Is(err, ErrNoConditions) {
		t.Fatalf("expected ErrNoConditions, got %v", err)
	}
	if _, _, err := buildDelete("session", map[string]any{}); !errors.Is(err, ErrNoConditions) {
		t.Fatalf("expected ErrNoConditions for empty map, got %v", err)
	}

	query, args, err := buildDelete("session", map[string]any{"id": int64(1)})
	if err != nil {
		t.Fatalf("buildDelete returned error: %v", err)
	}
	if query != "DELETE FROM session WHERE id = ?" {
		t.Fatalf("unexpected query: %q", query)
	}
	if !reflect.DeepEqual(args, []any{int64(1)}) {
		t.Fatalf("unexpected args: %v", args)
	}
}
