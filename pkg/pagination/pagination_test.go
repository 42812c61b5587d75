package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/patients?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "")
	if p.Page != 1 || p.Limit != 5 {
		t.Errorf("expected defaults 1/5, got %d/%d", p.Page, p.Limit)
	}
}

func TestFromContext_ParsesAndCaps(t *testing.T) {
	p := paramsFor(t, "page=3&limit=10")
	if p.Page != 3 || p.Limit != 10 {
		t.Errorf("expected 3/10, got %d/%d", p.Page, p.Limit)
	}

	p = paramsFor(t, "page=-1&limit=1000")
	if p.Page != 1 {
		t.Errorf("expected negative page to fall back to 1, got %d", p.Page)
	}
	if p.Limit != MaxLimit {
		t.Errorf("expected limit capped at %d, got %d", MaxLimit, p.Limit)
	}

	p = paramsFor(t, "page=abc&limit=abc")
	if p.Page != 1 || p.Limit != 5 {
		t.Errorf("expected defaults for junk input, got %d/%d", p.Page, p.Limit)
	}
}

func TestBounds(t *testing.T) {
	cases := []struct {
		page, limit, total int
		wantStart, wantEnd int
	}{
		{1, 5, 12, 0, 5},
		{2, 5, 12, 5, 10},
		{3, 5, 12, 10, 12},
		{4, 5, 12, 12, 12},
		{10, 5, 12, 12, 12},
	}
	for _, tc := range cases {
		p := Params{Page: tc.page, Limit: tc.limit}
		start, end := p.Bounds(tc.total)
		if start != tc.wantStart || end != tc.wantEnd {
			t.Errorf("Bounds(page=%d,limit=%d,total=%d) = [%d,%d), want [%d,%d)",
				tc.page, tc.limit, tc.total, start, end, tc.wantStart, tc.wantEnd)
		}
	}
}

func TestHasNext(t *testing.T) {
	if !(Params{Page: 1, Limit: 5}).HasNext(12) {
		t.Error("expected hasNext on a partial sweep")
	}
	if (Params{Page: 3, Limit: 5}).HasNext(12) {
		t.Error("expected no next page at the tail")
	}
	if (Params{Page: 3, Limit: 5}).HasNext(15) {
		t.Error("expected no next page when the last page is exactly full")
	}
}

func TestNewInfo(t *testing.T) {
	info := NewInfo(Params{Page: 2, Limit: 5}, 12)
	if info.Page != 2 || info.Limit != 5 || info.Total != 12 || !info.HasNext {
		t.Errorf("unexpected info: %+v", info)
	}
}
