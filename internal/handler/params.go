package handler

import (
	"net/http"
	"strconv"
	"time"
)

// Query-parameter helpers shared by the list endpoints. Times on the wire
// are RFC 3339; statuses are the numeric dashboard codes.

func parsePage(r *http.Request) (pageNum, pageSize int) {
	pageNum, _ = strconv.Atoi(r.URL.Query().Get("page_num"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	return pageNum, pageSize
}

func parseIntParam(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

type pagedResponse struct {
	Items    any `json:"items"`
	Total    int `json:"total"`
	PageNum  int `json:"page_num"`
	PageSize int `json:"page_size"`
}

func newPagedResponse(items any, total, pageNum, pageSize int) pagedResponse {
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	return pagedResponse{Items: items, Total: total, PageNum: pageNum, PageSize: pageSize}
}
