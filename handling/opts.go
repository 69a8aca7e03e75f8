package handling

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"dutchthrift_server/database"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs/tables"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ParsePage reads page and page_size from the query string. Missing values
// fall back to the defaults applied by database.Page.Normalize.
func ParsePage(r *http.Request) (database.Page, error) {
	query := r.URL.Query()
	var page database.Page
	var err error

	if v := query.Get("page"); v != "" {
		if page.Number, err = strconv.Atoi(v); err != nil || page.Number < 1 {
			return page, lib.NewValidationError("page", "must be a positive integer")
		}
	}

	if v := query.Get("page_size"); v != "" {
		if page.Size, err = strconv.Atoi(v); err != nil || page.Size < 1 {
			return page, lib.NewValidationError("page_size", "must be a positive integer")
		}
	}

	return page.Normalize(), nil
}

func ParseOrderFilter(r *http.Request) (database.OrderFilter, error) {
	page, err := ParsePage(r)
	if err != nil {
		return database.OrderFilter{}, err
	}
	filter := database.OrderFilter{Page: page}

	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		filter.Status = tables.OrderStatus(status)
	}
	return filter, nil
}

func ParseItemFilter(r *http.Request) (database.ItemFilter, error) {
	page, err := ParsePage(r)
	if err != nil {
		return database.ItemFilter{}, err
	}
	query := r.URL.Query()
	filter := database.ItemFilter{
		Page:   page,
		Search: strings.TrimSpace(query.Get("search")),
	}

	if status := strings.TrimSpace(query.Get("status")); status != "" {
		filter.Status = tables.ItemStatus(status)
	}
	return filter, nil
}

// ParseUUIDParam reads a UUID route parameter
func ParseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, lib.NewValidationError(name, fmt.Sprintf("must be a valid UUID: %s", chi.URLParam(r, name)))
	}
	return id, nil
}
