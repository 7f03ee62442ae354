// internal/core/pagination_test.go
package core

import (
	"net/url"
	"testing"
)

func TestParsePageOptions(t *testing.T) {
	testCases := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
		wantErr   bool
	}{
		{"defaults", "", DefaultPage, DefaultLimit, false},
		{"explicit page and limit", "page=3&limit=25", 3, 25, false},
		{"page only", "page=2", 2, DefaultLimit, false},
		{"limit only", "limit=50", DefaultPage, 50, false},
		{"limit at max", "limit=100", DefaultPage, MaxLimit, false},
		{"limit above max", "limit=101", 0, 0, true},
		{"page zero", "page=0", 0, 0, true},
		{"negative page", "page=-2", 0, 0, true},
		{"non-numeric page", "page=abc", 0, 0, true},
		{"non-numeric limit", "limit=ten", 0, 0, true},
		{"limit zero", "limit=0", 0, 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values, err := url.ParseQuery(tc.query)
			if err != nil {
				t.Fatalf("bad test query %q: %v", tc.query, err)
			}
			opts, err := ParsePageOptions(values)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParsePageOptions(%q) = %+v; want error", tc.query, opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePageOptions(%q) error: %v", tc.query, err)
			}
			if opts.Page != tc.wantPage || opts.Limit != tc.wantLimit {
				t.Errorf("ParsePageOptions(%q) = page %d limit %d; want page %d limit %d",
					tc.query, opts.Page, opts.Limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	testCases := []struct {
		page  int
		limit int
		want  int
	}{
		{1, 10, 0},
		{2, 10, 10},
		{3, 25, 50},
	}

	for _, tc := range testCases {
		opts := PageOptions{Page: tc.page, Limit: tc.limit}
		if got := opts.Offset(); got != tc.want {
			t.Errorf("Offset() for page %d limit %d = %d; want %d", tc.page, tc.limit, got, tc.want)
		}
	}
}
