package health

// Config holds the health module configuration.
type Config struct {
	// Addr is the listen address for the HTTP health endpoint.
	// The endpoint is disabled when empty.
	Addr string `env:"HEALTH_ADDR"`
}
