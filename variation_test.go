package cfdg

import "testing"

func TestVariationFromString(t *testing.T) {
	tests := []struct {
		code    string
		want    uint64
		wantErr bool
	}{
		{"", 0, false},
		{"A", 1, false},
		{"Z", 26, false},
		{"AA", 27, false},
		{"az", 52, false},
		{"ABC", 1*26*26 + 2*26 + 3, false},
		{"A1", 0, true},
		{"ABCDEFGHIJKLMN", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := VariationFromString(tt.code)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VariationFromString(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("VariationFromString(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestVariationStringRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 26, 27, 702, 703, 123456789} {
		s := VariationString(v)
		got, err := VariationFromString(s)
		if err != nil || got != v {
			t.Errorf("VariationFromString(VariationString(%d) = %q) = %d, %v", v, s, got, err)
		}
	}
	if got := VariationString(28); got != "AB" {
		t.Errorf("VariationString(28) = %q, want AB", got)
	}
}

func TestRandomVariation(t *testing.T) {
	for _, n := range []int{0, 1, 3, 20} {
		v := RandomVariation(n)
		s := VariationString(v)
		want := min(max(n, 1), MaxVariationLength)
		if len(s) != want {
			t.Errorf("RandomVariation(%d) = %q, want %d letters", n, s, want)
		}
	}
}
