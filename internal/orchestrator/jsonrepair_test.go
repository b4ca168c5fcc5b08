package orchestrator

import (
	"strings"
	"testing"
)

func TestDecodeJSONWithRepairValidInput(t *testing.T) {
	t.Parallel()
	var v map[string]any
	if err := DecodeJSONWithRepair(`{"a": 1, "b": [true, null]}`, &v); err != nil {
		t.Fatalf("valid JSON should not need repair: %v", err)
	}
	if v["a"].(float64) != 1 {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestRepairRawNewlinesInStrings(t *testing.T) {
	t.Parallel()
	var v map[string]any
	raw := "{\"body\": \"line one\nline two\tend\"}"
	if err := DecodeJSONWithRepair(raw, &v); err != nil {
		t.Fatalf("DecodeJSONWithRepair: %v", err)
	}
	if v["body"] != "line one\nline two\tend" {
		t.Fatalf("unexpected body: %q", v["body"])
	}
}

func TestRepairUnquotedKeys(t *testing.T) {
	t.Parallel()
	var v map[string]any
	if err := DecodeJSONWithRepair(`{component: "Heading", props: {level: 2}}`, &v); err != nil {
		t.Fatalf("DecodeJSONWithRepair: %v", err)
	}
	if v["component"] != "Heading" {
		t.Fatalf("unexpected: %v", v)
	}
}

func TestRepairMissingCommas(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		raw  string
	}{
		{"string-string", `{"a": ["x" "y"]}`},
		{"object-object", `{"a": [{"x": 1} {"y": 2}]}`},
		{"array-array", `{"a": [[1] [2]]}`},
		{"number-string", `{"a": [1 "x"]}`},
		{"boolean-string", `{"a": [true "x"]}`},
		{"null-string", `{"a": [null "x"]}`},
		{"string-object", `{"a": ["x" {"y": 2}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var v map[string]any
			if err := DecodeJSONWithRepair(tc.raw, &v); err != nil {
				t.Fatalf("DecodeJSONWithRepair(%q): %v", tc.raw, err)
			}
		})
	}
}

func TestRepairTrailingCommas(t *testing.T) {
	t.Parallel()
	var v map[string]any
	if err := DecodeJSONWithRepair(`{"a": [1, 2,], "b": {"c": 3,},}`, &v); err != nil {
		t.Fatalf("DecodeJSONWithRepair: %v", err)
	}
}

func TestRepairCombinedFailures(t *testing.T) {
	t.Parallel()
	var v map[string]any
	raw := "{title: \"two\nlines\", body: \"x\",}"
	if err := DecodeJSONWithRepair(raw, &v); err != nil {
		t.Fatalf("DecodeJSONWithRepair: %v", err)
	}
	if v["title"] != "two\nlines" || v["body"] != "x" {
		t.Fatalf("unexpected: %v", v)
	}
}

func TestRepairExhaustedError(t *testing.T) {
	t.Parallel()
	var v map[string]any
	err := DecodeJSONWithRepair(`{"a": }`, &v)
	if err == nil {
		t.Fatal("expected error for unrepairable input")
	}
	if !strings.Contains(err.Error(), "original error") || !strings.Contains(err.Error(), "near:") {
		t.Fatalf("diagnostic missing detail: %v", err)
	}
}

func TestRepairDoesNotTouchStringContents(t *testing.T) {
	t.Parallel()
	var v map[string]any
	raw := `{"note": "keys like {a: 1} and trailing, ] stay intact"}`
	if err := DecodeJSONWithRepair(raw, &v); err != nil {
		t.Fatalf("DecodeJSONWithRepair: %v", err)
	}
	if v["note"] != "keys like {a: 1} and trailing, ] stay intact" {
		t.Fatalf("string contents mangled: %q", v["note"])
	}
}
