package config

import (
	"fmt"
	"os"
)

// Environment variables read by ApplyEnv.
const (
	EnvTelloIP   = "TELLO_IP"
	EnvFacesDir  = "FOLLOW_FACES_DIR"
	EnvModelsDir = "FOLLOW_MODELS_DIR"
	EnvLogLevel  = "FOLLOW_LOG_LEVEL"
	EnvDatabase  = "DATABASE_URL"
)

// DefaultTelloPort is the Tello SDK command port.
const DefaultTelloPort = "8889"

// TelloAddr returns the SDK address for ip.
func TelloAddr(ip string) string {
	return ip + ":" + DefaultTelloPort
}

// DatabaseURLFromEnv returns DATABASE_URL, or a URL built from the
// POSTGRES_* variables when POSTGRES_HOST is set, or "".
func DatabaseURLFromEnv() string {
	if url := os.Getenv(EnvDatabase); url != "" {
		return url
	}

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		return ""
	}
	port := os.Getenv("POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}
	name := os.Getenv("POSTGRES_DB")
	if name == "" {
		name = "follow"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"), os.Getenv("POSTGRES_PASSWORD"), host, port, name)
}

// ApplyEnv overrides c with any environment variables that are set.
func (c *Config) ApplyEnv() {
	if ip := os.Getenv(EnvTelloIP); ip != "" {
		c.Drone.Tello.Address = TelloAddr(ip)
	}
	if dir := os.Getenv(EnvFacesDir); dir != "" {
		c.Gallery.Dir = dir
	}
	if dir := os.Getenv(EnvModelsDir); dir != "" {
		c.Recognizer.ModelDir = dir
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if url := DatabaseURLFromEnv(); url != "" {
		c.Gallery.DatabaseURL = url
	}
}
