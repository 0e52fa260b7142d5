package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// Cors lets browsers on any origin call the solver. There are no cookies, so
// credentials stay disabled.
func Cors() Middleware {
	options := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedHeaders: []string{"*"},
	}
	return cors.New(options).Handler
}
