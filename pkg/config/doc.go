// Package config loads typed configuration structs from environment variables
// using github.com/caarlos0/env/v11, with an optional .env file applied once
// through github.com/joho/godotenv.
//
// Each configuration type is parsed once per process and cached; Parse is the
// uncached variant.
//
//	type App struct {
//		Email email.Config
//		Mongo mongo.Config
//		Addr  string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg App
//	config.MustLoad(&cfg)
package config
