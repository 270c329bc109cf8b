package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// parsePagination reads ?page and ?limit with the platform defaults (first
// page, 6 items). Values are clamped rather than rejected.
func parsePagination(c echo.Context) (page, limit int) {
	page, limit = 1, 6
	if v, err := strconv.Atoi(c.QueryParam("page")); err == nil && v >= 1 {
		page = v
	}
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v >= 1 {
		limit = v
	}
	if limit > 50 {
		limit = 50
	}
	return page, limit
}

// pathID parses a numeric route parameter, 0 when malformed.
func pathID(c echo.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}
