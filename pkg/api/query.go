package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/nimburion/storefront/pkg/repository/document"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// reservedParams are consumed by ParseQuery and never become filters.
var reservedParams = map[string]struct{}{
	"page":  {},
	"limit": {},
	"sort":  {},
}

// ParseQuery turns list query parameters into document.QueryOptions.
// page and limit default to 1 and 20, limit is capped at 100, sort takes a
// field name with an optional "-" prefix for descending order, and every
// other parameter becomes an equality filter on its first value.
func ParseQuery(values url.Values) (document.QueryOptions, error) {
	page, err := positiveInt(values.Get("page"), defaultPage)
	if err != nil {
		return document.QueryOptions{}, fmt.Errorf("page: %w", err)
	}
	limit, err := positiveInt(values.Get("limit"), defaultLimit)
	if err != nil {
		return document.QueryOptions{}, fmt.Errorf("limit: %w", err)
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	opts := document.QueryOptions{
		Pagination: document.Pagination{Page: page, Limit: limit},
	}

	if sortParam := strings.TrimSpace(values.Get("sort")); sortParam != "" {
		opts.Sort = document.Sort{Field: sortParam, Order: document.SortAsc}
		if strings.HasPrefix(sortParam, "-") {
			opts.Sort = document.Sort{Field: strings.TrimPrefix(sortParam, "-"), Order: document.SortDesc}
		}
		if opts.Sort.Field == "" {
			return document.QueryOptions{}, fmt.Errorf("sort: field name is required")
		}
	}

	for key, vals := range values {
		if _, reserved := reservedParams[key]; reserved || len(vals) == 0 {
			continue
		}
		if opts.Filter == nil {
			opts.Filter = document.Filter{}
		}
		opts.Filter[key] = vals[0]
	}
	return opts, nil
}

func positiveInt(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return n, nil
}
