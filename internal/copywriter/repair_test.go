package copywriter

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRepairSingleSectionsKeyIsNoOp(t *testing.T) {
	t.Parallel()
	in := `version: "1"
kind: overview
sections:
  - id: summary
    type: summary
    body: Hello.
`
	if got := RepairDuplicateSections(in); got != in {
		t.Fatalf("single-key document changed:\n%s", got)
	}
}

func TestRepairTwoKeysConcatenatesItems(t *testing.T) {
	t.Parallel()
	in := `version: "1"
kind: case_study
sections:
  - id: a
    type: context
    body: First.
  - id: b
    type: problem
    body: Second.
sections:
  - id: c
    type: solution
    body: Third.
  - id: d
    type: process
    body: Fourth.
  - id: e
    type: outcome
    body: Fifth.
summary: After the lists.
`
	out := RepairDuplicateSections(in)
	if strings.Count(out, "sections:") != 1 {
		t.Fatalf("expected exactly one sections key:\n%s", out)
	}

	var doc Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("repaired output does not parse: %v\n%s", err, out)
	}
	if len(doc.Sections) != 5 {
		t.Fatalf("expected 5 sections, got %d", len(doc.Sections))
	}
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		if doc.Sections[i].ID != want {
			t.Fatalf("section %d = %q, want %q", i, doc.Sections[i].ID, want)
		}
	}
	if doc.Summary != "After the lists." {
		t.Fatalf("trailing key lost: %q", doc.Summary)
	}
}

func TestRepairFlushesBeforeUnrelatedKey(t *testing.T) {
	t.Parallel()
	in := `sections:
  - id: a
    type: summary
    body: One.
summary: Between the lists.
sections:
  - id: b
    type: context
    body: Two.
`
	out := RepairDuplicateSections(in)
	var doc Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("repaired output does not parse: %v\n%s", err, out)
	}
	if len(doc.Sections) != 2 || doc.Sections[0].ID != "a" || doc.Sections[1].ID != "b" {
		t.Fatalf("unexpected sections: %+v", doc.Sections)
	}
	if doc.Summary != "Between the lists." {
		t.Fatalf("unrelated key lost: %q", doc.Summary)
	}
}

func TestRepairBlankLineInsideList(t *testing.T) {
	t.Parallel()
	in := `sections:
  - id: a
    type: summary
    body: One.

  - id: b
    type: context
    body: Two.
sections:
  - id: c
    type: problem
    body: Three.
`
	out := RepairDuplicateSections(in)
	var doc Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("repaired output does not parse: %v\n%s", err, out)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d:\n%s", len(doc.Sections), out)
	}
}

func TestRepairIdempotent(t *testing.T) {
	t.Parallel()
	in := `kind: overview
sections:
  - id: a
    type: summary
    body: One.
sections:
  - id: b
    type: context
    body: Two.
`
	once := RepairDuplicateSections(in)
	twice := RepairDuplicateSections(once)
	if once != twice {
		t.Fatalf("repair is not idempotent:\n--- once ---\n%s\n--- twice ---\n%s", once, twice)
	}
}

func TestParseRejectsEmptyAndSectionless(t *testing.T) {
	t.Parallel()
	if _, err := Parse(""); err == nil {
		t.Fatal("expected error for empty draft")
	}
	if _, err := Parse("version: \"1\"\nkind: overview\n"); err == nil {
		t.Fatal("expected error for draft without sections")
	}
}
