package diskstat

import (
	"path/filepath"
	"testing"
)

func TestProbe(t *testing.T) {
	u, err := Probe(t.TempDir())
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if u.Total == 0 {
		t.Error("Total should be non-zero")
	}
	if u.Free > u.Total {
		t.Errorf("Free %d exceeds Total %d", u.Free, u.Total)
	}
}

func TestProbeMissingPath(t *testing.T) {
	if _, err := Probe(filepath.Join(t.TempDir(), "missing", "deeper")); err == nil {
		t.Error("expected error for missing path")
	}
}

func TestGained(t *testing.T) {
	tests := []struct {
		name   string
		before *Usage
		after  *Usage
		want   int64
	}{
		{"Grew", &Usage{Free: 100}, &Usage{Free: 350}, 250},
		{"Shrank", &Usage{Free: 350}, &Usage{Free: 100}, 0},
		{"Missing before", nil, &Usage{Free: 100}, 0},
		{"Missing after", &Usage{Free: 100}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.after.Gained(tt.before); got != tt.want {
				t.Errorf("Gained() = %d, want %d", got, tt.want)
			}
		})
	}
}
