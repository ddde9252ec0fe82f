package config

import "os"

type Config struct {
	Port               string
	GlamapDBHost       string
	GlamapDBPort       string
	DirectoryCacheHost string
	DirectoryCachePort string
	StorageServiceHost string
	StorageServicePort string
	JaegerAddress      string
}

func NewConfig() *Config {
	return &Config{
		Port:               os.Getenv("GLAMAP_SERVICE_PORT"),
		GlamapDBHost:       os.Getenv("GLAMAP_DB_HOST"),
		GlamapDBPort:       os.Getenv("GLAMAP_DB_PORT"),
		DirectoryCacheHost: os.Getenv("DIRECTORY_CACHE_HOST"),
		DirectoryCachePort: os.Getenv("DIRECTORY_CACHE_PORT"),
		StorageServiceHost: os.Getenv("STORAGE_SERVICE_HOST"),
		StorageServicePort: os.Getenv("STORAGE_SERVICE_PORT"),
		JaegerAddress:      os.Getenv("JAEGER_ADDRESS"),
	}
}
