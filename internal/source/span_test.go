package source

import "testing"

func TestSpanCover(t *testing.T) {
	tests := []struct {
		name string
		a, b Span
		want Span
	}{
		{"disjoint", Span{File: 1, Start: 2, End: 4}, Span{File: 1, Start: 8, End: 10}, Span{File: 1, Start: 2, End: 10}},
		{"nested", Span{File: 1, Start: 0, End: 20}, Span{File: 1, Start: 5, End: 6}, Span{File: 1, Start: 0, End: 20}},
		{"invalid receiver", Span{}, Span{File: 2, Start: 3, End: 5}, Span{File: 2, Start: 3, End: 5}},
		{"invalid other", Span{File: 2, Start: 3, End: 5}, Span{}, Span{File: 2, Start: 3, End: 5}},
		{"different files", Span{File: 1, Start: 3, End: 5}, Span{File: 2, Start: 0, End: 9}, Span{File: 1, Start: 3, End: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Cover(tt.b); got != tt.want {
				t.Errorf("Cover = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpanValidity(t *testing.T) {
	if (Span{}).IsValid() {
		t.Error("zero span must be invalid")
	}
	s := Span{File: 1, Start: 4, End: 9}
	if !s.IsValid() || s.Empty() || s.Len() != 5 {
		t.Errorf("unexpected span properties for %v", s)
	}
	if !s.Contains(Span{File: 1, Start: 5, End: 9}) {
		t.Error("expected containment")
	}
	if s.Contains(Span{File: 1, Start: 3, End: 5}) {
		t.Error("unexpected containment")
	}
	if got := s.ZeroideToStart(); got.Start != 4 || got.End != 4 {
		t.Errorf("ZeroideToStart = %v", got)
	}
	if got := s.ZeroideToEnd(); got.Start != 9 || got.End != 9 {
		t.Errorf("ZeroideToEnd = %v", got)
	}
}
