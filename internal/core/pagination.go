// internal/core/pagination.go
package core

import (
	"fmt"
	"net/url"
	"strconv"
)

// Pagination defaults. The dashboards page record and notification lists
// ten at a time, so that is the server default as well.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageOptions holds parsed pagination query parameters.
type PageOptions struct {
	Page  int
	Limit int
}

// Offset returns the row offset implied by Page and Limit.
func (p PageOptions) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParsePageOptions extracts 'page' and 'limit' from query parameters.
// Returns the parsed options and any validation error.
func ParsePageOptions(queryParams url.Values) (*PageOptions, error) {
	opts := &PageOptions{
		Page:  DefaultPage,
		Limit: DefaultLimit,
	}

	if pageStr := queryParams.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'page' parameter: must be an integer")
		}
		if page < 1 {
			return nil, fmt.Errorf("invalid 'page' parameter: must be at least 1")
		}
		opts.Page = page
	}

	if limitStr := queryParams.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be an integer")
		}
		if limit < 1 {
			return nil, fmt.Errorf("invalid 'limit' parameter: must be at least 1")
		}
		if limit > MaxLimit {
			return nil, fmt.Errorf("invalid 'limit' parameter: maximum is %d", MaxLimit)
		}
		opts.Limit = limit
	}

	return opts, nil
}
