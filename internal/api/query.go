package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-device-cache/internal/device"
)

// Query parameters of the list endpoint.
const (
	paramPageNumber = "pageNumber"
	paramPageSize   = "pageSize"
	paramName       = "name"
	paramLocation   = "location"
	paramType       = "type"
	paramIsOnline   = "isOnline"
	paramMinWatts   = "minThresholdWatts"
	paramSortBy     = "sortBy"
	paramSortOrder  = "sortOrder"
)

// parseListQuery reads filter and pagination from q. Pagination and sort
// values are clamped or defaulted; only malformed numbers and booleans are
// rejected.
func parseListQuery(q url.Values) (device.Filter, device.Pagination, error) {
	page, err := optionalInt(q, paramPageNumber)
	if err != nil {
		return device.Filter{}, device.Pagination{}, err
	}
	size, err := optionalInt(q, paramPageSize)
	if err != nil {
		return device.Filter{}, device.Pagination{}, err
	}

	filter := device.Filter{
		NameContains: q.Get(paramName),
		Location:     q.Get(paramLocation),
		Type:         q.Get(paramType),
		SortBy:       device.ParseSortField(q.Get(paramSortBy)),
		SortOrder:    device.ParseSortOrder(q.Get(paramSortOrder)),
	}

	if raw := strings.TrimSpace(q.Get(paramIsOnline)); raw != "" {
		online, err := strconv.ParseBool(raw)
		if err != nil {
			return device.Filter{}, device.Pagination{}, badRequest(paramIsOnline + " must be true or false")
		}
		filter.IsOnline = &online
	}

	if q.Has(paramMinWatts) && strings.TrimSpace(q.Get(paramMinWatts)) != "" {
		watts, err := optionalInt(q, paramMinWatts)
		if err != nil {
			return device.Filter{}, device.Pagination{}, err
		}
		filter.MinThresholdWatts = &watts
	}

	return filter.Normalize(), device.NewPagination(page, size), nil
}

func optionalInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name + " must be an integer")
	}
	return n, nil
}

type paginationInfo struct {
	PageNumber  int  `json:"pageNumber"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

type pageLinks struct {
	Self     string `json:"self"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
}

type listResponse struct {
	Items      []device.View  `json:"items"`
	Pagination paginationInfo `json:"pagination"`
	Links      pageLinks      `json:"links"`
}

// newListResponse builds the list body. Links keep the caller's filters and
// point at the page actually served.
func newListResponse(path string, q url.Values, page device.Page[device.View]) listResponse {
	link := func(number int) string {
		values := url.Values{}
		for k, v := range q {
			values[k] = append([]string(nil), v...)
		}
		values.Set(paramPageNumber, strconv.Itoa(number))
		values.Set(paramPageSize, strconv.Itoa(page.PageSize))
		return path + "?" + values.Encode()
	}

	links := pageLinks{Self: link(page.PageNumber)}
	if page.HasNext() {
		links.Next = link(page.PageNumber + 1)
	}
	if page.HasPrevious() {
		links.Previous = link(page.PageNumber - 1)
	}

	return listResponse{
		Items: page.Items,
		Pagination: paginationInfo{
			PageNumber:  page.PageNumber,
			PageSize:    page.PageSize,
			TotalCount:  page.TotalCount,
			TotalPages:  page.TotalPages,
			HasPrevious: page.HasPrevious(),
			HasNext:     page.HasNext(),
		},
		Links: links,
	}
}
