package page

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		doc     *PageJSON
		wantErr string
	}{
		{"nil", nil, "nil page document"},
		{"wrong version", &PageJSON{Version: "2", Page: Page{ID: "p", Blocks: []Block{}}}, "unsupported page version"},
		{"missing id", &PageJSON{Version: Version, Page: Page{Blocks: []Block{}}}, "missing page id"},
		{"missing blocks", &PageJSON{Version: Version, Page: Page{ID: "p"}}, "missing blocks"},
		{"valid empty", &PageJSON{Version: Version, Page: Page{ID: "p", Blocks: []Block{}}}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.doc.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate=%v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	raw := `{"version":"1","page":{"id":"p1","kind":"overview","blocks":[{"id":"b1","component":"Heading","text":"Hi"}]}}`
	doc, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Page.Blocks[0].Component != "Heading" || doc.Page.Blocks[0].Text != "Hi" {
		t.Fatalf("unexpected block: %+v", doc.Page.Blocks[0])
	}

	if _, err := Decode([]byte(`{"version":"0","page":{"id":"p","blocks":[]}}`)); err == nil {
		t.Fatal("expected version error")
	}
	if _, err := Decode([]byte(`not json`)); err == nil {
		t.Fatal("expected parse error")
	}
}
