// Package pager drives exhaustive fetches over offset/limit listing endpoints.
//
// Both drivers call the fetch function with a fixed page size and offsets 0, limit, 2*limit, ...
// until a page comes back empty. The backend must eventually return an empty page: there is no upper bound on the
// number of calls. A fetch error is returned immediately with no partial result.
package pager

import (
	"context"
)

// DefaultPageSize is the page size used when a caller passes a non-positive limit.
const DefaultPageSize = 50

// FetchFunc returns the page of items starting at offset.
type FetchFunc[T any] func(ctx context.Context, offset, limit int) ([]T, error)

// RawFetchFunc returns one page as an undecoded JSON document.
type RawFetchFunc func(ctx context.Context, offset, limit int) (map[string]any, error)

func pageSize(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	return limit
}

// All accumulates every page returned by fetch, in order, and stops after the first empty page.
func All[T any](ctx context.Context, limit int, fetch FetchFunc[T]) ([]T, error) {
	limit = pageSize(limit)

	var all []T
	for offset := 0; ; offset += limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := fetch(ctx, offset, limit)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
	}
}

// Raw accumulates the nested container doc[field] of every page, in order.
//
// A page is empty when doc[field].items is missing, not a list, or has no elements. The empty page's container is
// not included in the result.
func Raw(ctx context.Context, limit int, field string, fetch RawFetchFunc) ([]map[string]any, error) {
	return All(ctx, limit, func(ctx context.Context, offset, limit int) ([]map[string]any, error) {
		doc, err := fetch(ctx, offset, limit)
		if err != nil {
			return nil, err
		}

		container, ok := doc[field].(map[string]any)
		if !ok || len(itemsOf(container)) == 0 {
			return nil, nil
		}
		return []map[string]any{container}, nil
	})
}

// Items flattens the "items" lists of containers returned by [Raw].
func Items(containers []map[string]any) []any {
	var items []any
	for _, c := range containers {
		items = append(items, itemsOf(c)...)
	}
	return items
}

func itemsOf(container map[string]any) []any {
	items, _ := container["items"].([]any)
	return items
}
