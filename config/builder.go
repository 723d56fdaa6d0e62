package config

import (
	"github.com/jpalmerr/contactbook"
)

// BuildOptions converts parsed configuration into SDK options for
// [contactbook.Open].
//
// The logger is not included; callers build it from [Config.Log] and add
// [contactbook.WithLogger] themselves.
func BuildOptions(cfg *Config) []contactbook.Option {
	opts := []contactbook.Option{
		buildStorage(cfg.Storage),
		contactbook.WithWatch(cfg.Server.Watch),
	}

	if cfg.Title != "" {
		opts = append(opts, contactbook.WithTitle(cfg.Title))
	}

	// Parse already rejected out-of-range ports; zero means a hand-built Config
	if cfg.Server.Port != 0 {
		opts = append(opts, contactbook.WithPort(cfg.Server.Port))
	}

	return opts
}

// buildStorage selects the storage option for the configured driver.
func buildStorage(sc StorageConfig) contactbook.Option {
	switch sc.Driver {
	case contactbook.DriverSQLite:
		return contactbook.WithSQLite(sc.Path)
	case contactbook.DriverMongo:
		return contactbook.WithMongo(sc.Mongo.URI, sc.Mongo.Database, sc.Mongo.Collection)
	default:
		return contactbook.WithFile(sc.Path)
	}
}
