package store

import "testing"

func TestNewPaginationClamping(t *testing.T) {
	cases := []struct {
		limit, offset     int
		wantLim, wantOff  int
	}{
		{50, 0, 50, 0},
		{0, 0, 1, 0},
		{-5, -5, 1, 0},
		{5000, 10, MaxLimit, 10},
		{1, 1, 1, 1},
	}
	for _, c := range cases {
		got := NewPagination(c.limit, c.offset)
		if got.Limit != c.wantLim || got.Offset != c.wantOff {
			t.Errorf("NewPagination(%d, %d) = %+v, want {%d %d}", c.limit, c.offset, got, c.wantLim, c.wantOff)
		}
	}
}
