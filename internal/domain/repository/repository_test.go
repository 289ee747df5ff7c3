package repository

import "testing"

func TestNewPagination(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
		wantOffset         int
	}{
		{0, 0, 1, 20, 0},
		{3, 10, 3, 10, 20},
		{2, 500, 2, 100, 100},
	}
	for _, tt := range tests {
		p := NewPagination(tt.page, tt.size)
		if p.Page != tt.wantPage || p.Limit() != tt.wantSize || p.Offset() != tt.wantOffset {
			t.Errorf("NewPagination(%d, %d) = %+v offset %d", tt.page, tt.size, p, p.Offset())
		}
	}
}

func TestNewPagedResult(t *testing.T) {
	r := NewPagedResult([]string{"a", "b"}, 21, NewPagination(1, 10))
	if r.TotalPages != 3 || r.Total != 21 || len(r.Items) != 2 {
		t.Errorf("unexpected paged result: %+v", r)
	}
}
