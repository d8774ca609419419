package graph

import (
	"encoding/json"
	"testing"
)

// TestValue_TypedAccess tests constructors and checked accessors
func TestValue_TypedAccess(t *testing.T) {
	s := StringValue("DVD")
	if got, err := s.AsString(); err != nil || got != "DVD" {
		t.Errorf("Expected string DVD, got %q (err %v)", got, err)
	}
	if _, err := s.AsInt(); err == nil {
		t.Error("Expected AsInt on a string value to fail")
	}

	i := IntValue(352)
	if got, err := i.AsInt(); err != nil || got != 352 {
		t.Errorf("Expected int 352, got %d (err %v)", got, err)
	}
	if _, err := i.AsBool(); err == nil {
		t.Error("Expected AsBool on an int value to fail")
	}

	f := FloatValue(4.5)
	if got, err := f.AsFloat(); err != nil || got != 4.5 {
		t.Errorf("Expected float 4.5, got %f (err %v)", got, err)
	}

	b := BoolValue(true)
	if got, err := b.AsBool(); err != nil || !got {
		t.Errorf("Expected bool true, got %t (err %v)", got, err)
	}
}

// TestValue_IsZero tests the empty-string marker
func TestValue_IsZero(t *testing.T) {
	if !StringValue("").IsZero() {
		t.Error("Expected empty string value to be zero")
	}
	var zero Value
	if !zero.IsZero() {
		t.Error("Expected zero Value to be zero")
	}
	if IntValue(0).IsZero() {
		t.Error("Expected int 0 to be a stored value, not zero")
	}
	if StringValue("x").IsZero() {
		t.Error("Expected non-empty string to not be zero")
	}
}

// TestValue_JSONRoundTrip tests that attribute maps survive document storage
func TestValue_JSONRoundTrip(t *testing.T) {
	attrs := map[string]Value{
		"title":     StringValue("Patterns of Culture"),
		"group":     StringValue("Book"),
		"salesrank": IntValue(176466),
		"rating":    FloatValue(4.5),
		"active":    BoolValue(true),
	}

	data, err := json.Marshal(attrs)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]Value
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if len(decoded) != len(attrs) {
		t.Fatalf("Expected %d attributes, got %d", len(attrs), len(decoded))
	}
	for key, want := range attrs {
		got, exists := decoded[key]
		if !exists {
			t.Errorf("Expected key %q after round trip", key)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Expected %q to round-trip as %v, got %v", key, want, got)
		}
	}

	// Integers must come back as ints, not floats
	if decoded["salesrank"].Kind() != TypeInt {
		t.Errorf("Expected salesrank to stay an int, got kind %d", decoded["salesrank"].Kind())
	}
	if decoded["rating"].Kind() != TypeFloat {
		t.Errorf("Expected rating to stay a float, got kind %d", decoded["rating"].Kind())
	}
}

// TestValue_UnmarshalScalar tests decoding bare document scalars
func TestValue_UnmarshalScalar(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`"Book"`), &v); err != nil {
		t.Fatalf("Unmarshal string failed: %v", err)
	}
	if got, _ := v.AsString(); got != "Book" {
		t.Errorf("Expected Book, got %q", got)
	}

	if err := json.Unmarshal([]byte(`[1,2]`), &v); err == nil {
		t.Error("Expected non-scalar JSON to be rejected")
	}
}
