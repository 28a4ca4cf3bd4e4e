package redis

import (
	"testing"

	"github.com/MrSnakeDoc/demo-api/internal/ratelimit"
)

func TestParseCounts(t *testing.T) {
	tests := []struct {
		name    string
		vals    map[string]string
		want    ratelimit.Counts
		wantErr bool
	}{
		{name: "empty hash", vals: map[string]string{}, want: ratelimit.Counts{}},
		{name: "both fields", vals: map[string]string{"allow": "7", "reject": "2"}, want: ratelimit.Counts{Allowed: 7, Rejected: 2}},
		{name: "allow only", vals: map[string]string{"allow": "3"}, want: ratelimit.Counts{Allowed: 3}},
		{name: "unrelated fields ignored", vals: map[string]string{"allow": "1", "other": "x"}, want: ratelimit.Counts{Allowed: 1}},
		{name: "corrupt allow", vals: map[string]string{"allow": "lots"}, wantErr: true},
		{name: "corrupt reject", vals: map[string]string{"allow": "1", "reject": "1.5"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCounts(tt.vals)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseCounts(%v) expected an error, got %+v", tt.vals, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCounts(%v) unexpected error: %v", tt.vals, err)
			}
			if got != tt.want {
				t.Errorf("parseCounts(%v) = %+v, want %+v", tt.vals, got, tt.want)
			}
		})
	}
}
