package types

import "testing"

func TestJSONMapEqualIgnoresKeyOrder(t *testing.T) {
	a := JSONMap{"email": "a@b.com", "username": "neo"}
	b := JSONMap{"username": "neo", "email": "a@b.com"}
	if !a.Equal(b) {
		t.Fatal("maps with identical content should be equal")
	}
	if a.Equal(JSONMap{"email": "a@b.com"}) {
		t.Fatal("maps with different content should not be equal")
	}
}

func TestJSONMapScanRoundTrip(t *testing.T) {
	var m JSONMap
	if err := m.Scan([]byte(`{"email":"a@b.com"}`)); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if m["email"] != "a@b.com" {
		t.Fatalf("unexpected scan result: %v", m)
	}

	val, err := m.Value()
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if string(val.([]byte)) != `{"email":"a@b.com"}` {
		t.Fatalf("unexpected value: %s", val)
	}
}

func TestJSONMapEmptyCanonical(t *testing.T) {
	var nilMap JSONMap
	if nilMap.Canonical() != "{}" {
		t.Fatalf("nil map canonical = %q", nilMap.Canonical())
	}
	if !nilMap.Equal(JSONMap{}) {
		t.Fatal("nil and empty maps should compare equal")
	}
}
