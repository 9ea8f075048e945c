package config

import "os"

// Config carries the process configuration, read from the environment.
type Config struct {
	Addr      string
	DBDSN     string
	JWTSecret string
}

// Load reads the environment with development defaults. JWT_SECRET has no
// default on purpose: an empty secret makes every auth check fail per call
// instead of silently verifying against a known value.
func Load() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "host=localhost user=user password=password dbname=relaychatdb port=5432 sslmode=disable"
	}

	return Config{
		Addr:      addr,
		DBDSN:     dsn,
		JWTSecret: os.Getenv("JWT_SECRET"),
	}
}
