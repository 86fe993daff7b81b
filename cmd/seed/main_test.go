package main

import "testing"

func TestResolveDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVICII_DATABASE__DSN", "")

	if _, err := resolveDSN(""); err == nil {
		t.Fatal("empty sources accepted")
	}

	t.Setenv("SERVICII_DATABASE__DSN", "from-servicii")
	if got, _ := resolveDSN(""); got != "from-servicii" {
		t.Fatalf("got %q", got)
	}

	t.Setenv("DATABASE_URL", "from-hosting")
	if got, _ := resolveDSN(""); got != "from-hosting" {
		t.Fatalf("got %q", got)
	}

	if got, _ := resolveDSN("from-flag"); got != "from-flag" {
		t.Fatalf("got %q", got)
	}
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	for _, name := range []string{"file", "dsn", "migrate"} {
		if cmd.Flag(name) == nil {
			t.Errorf("flag --%s not registered", name)
		}
	}
}
