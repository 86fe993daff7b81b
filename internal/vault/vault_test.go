package vault

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	vault "github.com/hashicorp/vault/api"
)

func TestParseRef(t *testing.T) {
	path, key, err := ParseRef("secret/servicii/db#dsn")
	if err != nil || path != "secret/servicii/db" || key != "dsn" {
		t.Fatalf("ParseRef = %q %q %v", path, key, err)
	}
	for _, bad := range []string{"", "secret/db", "#dsn", "secret/db#", "db#dsn"} {
		if _, _, err := ParseRef(bad); err == nil {
			t.Errorf("ParseRef(%q) accepted", bad)
		}
	}
}

func TestSplitMount(t *testing.T) {
	m, r := splitMount("secret/servicii/db")
	if m != "secret" || r != "servicii/db" {
		t.Fatalf("splitMount = %q %q", m, r)
	}
}

func TestResolve_ReadsKVv2AndCaches(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1/secret/data/servicii/db" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data":     map[string]any{"dsn": "mysql://u:p@db/app"},
				"metadata": map[string]any{
					"created_time":    "2024-01-01T00:00:00Z",
					"deletion_time":   "",
					"destroyed":       false,
					"version":         1,
					"custom_metadata": nil,
				},
			},
		})
	}))
	defer srv.Close()

	cfg := vault.DefaultConfig()
	cfg.Address = srv.URL
	api, err := vault.NewClient(cfg)
	if err != nil {
		t.Fatalf("vault client: %v", err)
	}
	api.SetToken("test")
	c := newClient(api, nil)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		got, err := c.Resolve(ctx, "secret/servicii/db#dsn")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if got != "mysql://u:p@db/app" {
			t.Fatalf("Resolve = %q", got)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one upstream read, got %d", n)
	}

	if _, err := c.Resolve(ctx, "secret/servicii/db#missing"); err == nil {
		t.Fatalf("missing key resolved")
	}
}
