package tools

import (
	"os"

	"github.com/golang/glog"
	"github.com/joho/godotenv"
)

// LoadEnv loads KEY=value files into the process environment. Missing files are ignored and
// variables already set take precedence.
func LoadEnv(files ...string) {
	for _, file := range files {
		if !FileExists(file) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			glog.Warningf("cannot load %s: %v", file, err)
		}
	}
}

func EnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
