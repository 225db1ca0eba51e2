package shared

import (
	"fmt"
	"net/http"
	"strings"
)

// ParseFilters collects filter[field]=value query params into a map.
// Field names not in allowed are dropped.
func ParseFilters(r *http.Request, allowed ...string) map[string]string {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		if !strings.HasPrefix(key, "filter[") || !strings.HasSuffix(key, "]") {
			continue
		}
		field := key[len("filter[") : len(key)-1]
		if len(values) == 0 || values[0] == "" {
			continue
		}
		for _, candidate := range allowed {
			if field == candidate {
				filters[field] = values[0]
				break
			}
		}
	}
	return filters
}

// ParseSort reads sort=field or sort=-field, restricted to the given
// field -> column mapping. Returns an ORDER BY fragment or the fallback.
func ParseSort(r *http.Request, columns map[string]string, fallback string) string {
	raw := strings.TrimSpace(r.URL.Query().Get("sort"))
	if raw == "" {
		return fallback
	}
	desc := false
	if strings.HasPrefix(raw, "-") {
		desc = true
		raw = raw[1:]
	}
	column, ok := columns[raw]
	if !ok {
		return fallback
	}
	if desc {
		return fmt.Sprintf("%s DESC", column)
	}
	return column
}

// Expanded reports whether the expand query param names the relation.
func Expanded(r *http.Request, relation string) bool {
	for _, part := range strings.Split(r.URL.Query().Get("expand"), ",") {
		if strings.TrimSpace(part) == relation {
			return true
		}
	}
	return false
}
