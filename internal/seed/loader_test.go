package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbeddedSeed(t *testing.T) {
	items, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"Welcome Item", "Dev Container", "Rate Limiting"}
	if len(items) != len(want) {
		t.Fatalf("Load() returned %d items, want %d", len(items), len(want))
	}
	for i, name := range want {
		if items[i].Name == nil || *items[i].Name != name {
			t.Errorf("items[%d].Name = %v, want %q", i, items[i].Name, name)
		}
		if items[i].Description == nil || *items[i].Description == "" {
			t.Errorf("items[%d] has no description", i)
		}
		if items[i].IsActive == nil || !*items[i].IsActive {
			t.Errorf("items[%d] should be active", i)
		}
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `items:
  - name: Custom
  - name: Hidden
    is_active: false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write seed file: %v", err)
	}

	items, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Load() returned %d items, want 2", len(items))
	}
	if items[0].Description != nil {
		t.Errorf("items[0].Description = %q, want nil", *items[0].Description)
	}
	if !*items[0].IsActive {
		t.Error("is_active should default to true")
	}
	if *items[1].IsActive {
		t.Error("explicit is_active: false must be kept")
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "invalid yaml", content: "items: [", wantErr: "failed to parse"},
		{name: "no items", content: "items: []", wantErr: "contains no items"},
		{name: "missing name", content: "items:\n  - description: nameless\n", wantErr: "item 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write seed file: %v", err)
			}
			_, err := NewLoader(path).Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}
