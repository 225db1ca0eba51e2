package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestNewListDataTotalPages(t *testing.T) {
	cases := []struct {
		total, limit, want int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, c := range cases {
		got := NewListData(nil, c.total, 1, c.limit).TotalPages
		if got != c.want {
			t.Fatalf("total=%d limit=%d: total_pages = %d, want %d", c.total, c.limit, got, c.want)
		}
	}
}

func TestSuccessListEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessList(rec, []string{"a", "b"}, 2, 1, 20)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}

	var body struct {
		Data struct {
			Items      []string `json:"items"`
			Total      int      `json:"total"`
			Page       int      `json:"page"`
			Limit      int      `json:"limit"`
			TotalPages int      `json:"total_pages"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data.Items) != 2 || body.Data.Total != 2 || body.Data.TotalPages != 1 {
		t.Fatalf("unexpected list payload: %+v", body.Data)
	}
}

func TestFailEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, 404, "not_found", "employee not found", "req-1")

	if rec.Code != 404 {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Data  any `json:"data"`
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data != nil {
		t.Fatal("error responses must not carry data")
	}
	if body.Error == nil || body.Error.Code != "not_found" || body.RequestID != "req-1" {
		t.Fatalf("unexpected error payload: %+v", body)
	}
}
