// Package config provides configuration management for the hello service.
//
// Configuration is loaded from environment variables using the env package.
// All configuration values have sensible defaults, so the service starts on
// port 8080 with a [30ms, 1030ms) artificial delay and an in-memory event feed
// when no variables are set.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
