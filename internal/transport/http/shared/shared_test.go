package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest("GET", "/employees?page=3&limit=40", nil)
	p := ParsePagination(r, 20, 100)
	if p.Page != 3 || p.Limit != 40 {
		t.Fatalf("got page=%d limit=%d", p.Page, p.Limit)
	}
	if p.Offset() != 80 {
		t.Fatalf("offset = %d, want 80", p.Offset())
	}
}

func TestParsePaginationDefaultsAndCap(t *testing.T) {
	r := httptest.NewRequest("GET", "/employees", nil)
	p := ParsePagination(r, 20, 100)
	if p.Page != 1 || p.Limit != 20 {
		t.Fatalf("got page=%d limit=%d", p.Page, p.Limit)
	}

	r = httptest.NewRequest("GET", "/employees?page=0&limit=9999", nil)
	p = ParsePagination(r, 20, 100)
	if p.Page != 1 {
		t.Fatalf("page 0 must fall back to 1, got %d", p.Page)
	}
	if p.Limit != 100 {
		t.Fatalf("limit must cap at 100, got %d", p.Limit)
	}
}

func TestParseFiltersDropsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("GET", "/employees?filter[status]=active&filter[password]=x&filter[gender]=", nil)
	filters := ParseFilters(r, "status", "gender")
	if filters["status"] != "active" {
		t.Fatalf("status filter missing: %v", filters)
	}
	if _, ok := filters["password"]; ok {
		t.Fatal("unknown field must be dropped")
	}
	if _, ok := filters["gender"]; ok {
		t.Fatal("empty value must be dropped")
	}
}

func TestParseSort(t *testing.T) {
	columns := map[string]string{"name": "e.full_name", "code": "e.employee_code"}

	r := httptest.NewRequest("GET", "/employees?sort=-name", nil)
	if got := ParseSort(r, columns, "e.employee_code"); got != "e.full_name DESC" {
		t.Fatalf("got %q", got)
	}

	r = httptest.NewRequest("GET", "/employees?sort=salary", nil)
	if got := ParseSort(r, columns, "e.employee_code"); got != "e.employee_code" {
		t.Fatalf("unknown sort field must use fallback, got %q", got)
	}
}

func TestExpanded(t *testing.T) {
	r := httptest.NewRequest("GET", "/shifts?expand=shift_type,position", nil)
	if !Expanded(r, "shift_type") || !Expanded(r, "position") {
		t.Fatal("listed relations must be expanded")
	}
	if Expanded(r, "employee") {
		t.Fatal("unlisted relation must not be expanded")
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-09")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d.Year() != 2026 || d.Month() != 3 || d.Day() != 9 {
		t.Fatalf("got %v", d)
	}
	if _, err := ParseDate("09/03/2026"); err == nil {
		t.Fatal("slash format must be rejected")
	}
}
