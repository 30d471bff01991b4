package api

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/asaidimu/go-roster/core/pagination"
	"github.com/asaidimu/go-roster/core/query"
)

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// parseSort reads "field:dir" entries, e.g. "name:asc,created_at:desc".
// A bare field sorts ascending.
func parseSort(raw string) ([]query.Order, error) {
	var orders []query.Order
	for _, entry := range splitList(raw) {
		field, dir, found := strings.Cut(entry, ":")
		direction := query.SortDirectionAsc
		if found {
			d, err := query.ParseSortDirection(dir)
			if err != nil {
				return nil, err
			}
			direction = d
		}
		orders = append(orders, query.Order{Field: field, Direction: direction})
	}
	return orders, nil
}

// ParseListQuery turns the query string of a listing request into page and
// query options. filters and selectsWithJoin are JSON encoded; includes,
// selects and sort are comma separated.
func ParseListQuery(values url.Values) (pagination.PageOptions, query.QueryOptions, error) {
	var page pagination.PageOptions
	var opts query.QueryOptions

	var err error
	if page.Page, err = parseInt(values, "page"); err != nil {
		return page, opts, err
	}
	if page.Take, err = parseInt(values, "take"); err != nil {
		return page, opts, err
	}
	if order := values.Get("order"); order != "" {
		switch pagination.Order(strings.ToUpper(order)) {
		case pagination.OrderAsc, pagination.OrderDesc:
			page.Order = pagination.Order(strings.ToUpper(order))
		default:
			return page, opts, fmt.Errorf("order must be ASC or DESC")
		}
	}

	opts.Includes = splitList(values.Get("includes"))
	opts.Selects = splitList(values.Get("selects"))
	if opts.Orders, err = parseSort(values.Get("sort")); err != nil {
		return page, opts, err
	}
	if raw := values.Get("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Filters); err != nil {
			return page, opts, fmt.Errorf("filters: %w", err)
		}
	}
	if raw := values.Get("selectsWithJoin"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.SelectsWithJoin); err != nil {
			return page, opts, fmt.Errorf("selectsWithJoin: %w", err)
		}
	}
	return page.Normalize(), opts, nil
}
