// Package api provides the HTTP API server for sessions, recommendations
// and catalog administration.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// TopK is the default number of films returned per recommendation.
	TopK int
}
