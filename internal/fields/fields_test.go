package fields

import (
	"reflect"
	"testing"

	"github.com/servistore/servistore-backend/pkg/types"
)

func TestClean_DropsUndeclaredKeys(t *testing.T) {
	decls := []Declaration{
		{Name: "username", Required: true},
		{Name: "note", Required: false},
	}
	payload := types.JSONMap{
		"username": "alice",
		"note":     "hi",
		"admin":    true,
		"password": "sneaky",
	}

	cleaned := Clean(payload, decls)
	want := types.JSONMap{"username": "alice", "note": "hi"}
	if !reflect.DeepEqual(cleaned, want) {
		t.Fatalf("unexpected cleaned payload: %#v", cleaned)
	}
}

func TestClean_NilPayloadYieldsEmptyMap(t *testing.T) {
	cleaned := Clean(nil, []Declaration{{Name: "username"}})
	if cleaned == nil {
		t.Fatalf("expected non-nil map")
	}
	if len(cleaned) != 0 {
		t.Fatalf("expected empty map, got %#v", cleaned)
	}
}

func TestMissingRequired(t *testing.T) {
	decls := []Declaration{
		{Name: "username", Label: "Account Name", Required: true},
		{Name: "server_region", Required: true},
		{Name: "note", Required: false},
	}

	cases := []struct {
		name    string
		payload types.JSONMap
		want    []string
	}{
		{
			name:    "all present",
			payload: types.JSONMap{"username": "alice", "server_region": "eu"},
			want:    nil,
		},
		{
			name:    "missing key",
			payload: types.JSONMap{"username": "alice"},
			want:    []string{"Server Region"},
		},
		{
			name:    "whitespace only",
			payload: types.JSONMap{"username": "   ", "server_region": "eu"},
			want:    []string{"Account Name"},
		},
		{
			name:    "nil value",
			payload: types.JSONMap{"username": nil, "server_region": nil},
			want:    []string{"Account Name", "Server Region"},
		},
		{
			name:    "zero number is blank",
			payload: types.JSONMap{"username": float64(0), "server_region": "eu"},
			want:    []string{"Account Name"},
		},
		{
			name:    "optional field never reported",
			payload: types.JSONMap{"username": "alice", "server_region": "eu", "note": ""},
			want:    nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MissingRequired(tc.payload, decls)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, got)
			}
		})
	}
}

func TestMissingMessage(t *testing.T) {
	msg := MissingMessage("VPN Pro", []string{"Account Name", "Server Region"})
	want := "The required fields for the service «VPN Pro» are not filled: Account Name, Server Region"
	if msg != want {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(Declaration{Name: "user_name", Label: "Login"}); got != "Login" {
		t.Fatalf("expected label, got %q", got)
	}
	if got := DisplayName(Declaration{Name: "server_region_code"}); got != "Server Region Code" {
		t.Fatalf("expected humanized name, got %q", got)
	}
}
