package server

import "github.com/go-chi/chi/v5"

// Registrar is implemented by each service package to mount its routes.
type Registrar interface {
	Register(r chi.Router)
}
