package config

import (
	"os"
	"sync"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool
	Catalog CatalogConfig
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() {
	once.Do(func() {
		AppConfig = &Config{
			AppName: GetEnv("APP_NAME", "storefront"),
			Port:    GetEnv("PORT", "8080"),
			Env:     GetEnv("APP_ENV", "development"),
			Debug:   os.Getenv("DEBUG") == "true",
			Catalog: LoadCatalogConfig(),
		}
	})
}
