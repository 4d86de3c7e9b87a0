//go:build !swagger

package httpapi

import "github.com/go-chi/chi/v5"

// MountSwagger registers nothing; the API docs are only served by binaries
// built with -tags=swagger.
func MountSwagger(chi.Router) {}
