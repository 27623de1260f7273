package main

import "testing"

func TestSuggest(t *testing.T) {
	cases := map[string]string{
		"stat":    "status",
		"analyse": "analyze",
		"serv":    "serve",
		"xyzzy":   "",
	}
	for input, want := range cases {
		if got := suggest(input); got != want {
			t.Errorf("suggest(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if parseFormat("JSON") != FormatJSON {
		t.Error("format parsing should be case-insensitive")
	}
	if parseFormat("csv") != FormatCSV {
		t.Error("csv should parse")
	}
	if parseFormat("nonsense") != FormatTable {
		t.Error("unknown formats fall back to table")
	}
}

func TestEnvPort(t *testing.T) {
	t.Setenv("JANO_PORT", "9100")
	if got := envPort(0); got != 9100 {
		t.Errorf("envPort(0) = %d, want env value", got)
	}
	if got := envPort(8005); got != 8005 {
		t.Errorf("envPort(8005) = %d, flag must win", got)
	}
}
