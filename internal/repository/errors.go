// Package repository contains thin data-access types over *sql.DB. Sentinel
// errors defined here let handlers translate storage failures into HTTP
// status codes without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist. Handlers
// translate it into a 404, or a 401 for credential lookups.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers translate it into a 403.
var ErrForbidden = errors.New("forbidden")
