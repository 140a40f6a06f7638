// Package config loads typed configuration from the process environment.
//
// Values are parsed with github.com/caarlos0/env/v11 using `env` and
// `envDefault` struct tags. A `.env` file in the working directory is loaded
// once through github.com/joho/godotenv before the first parse; a missing file
// is not an error.
//
// Every configuration type is parsed at most once. Later calls for the same
// type return the cached copy:
//
//	var cfg pg.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning an error and is meant for the binary's
// startup path. Reset drops the cache so tests can reload with new variables.
package config
