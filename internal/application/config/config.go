package config

import (
	"errors"
	"fmt"
	"io/fs"
	"storefront-bff/internal/models/global"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// LoadEnvironment decodes the backend addresses from the process
// environment. envFile is optional; variables already set win over it.
func LoadEnvironment(envFile string) (*global.Environment, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var env global.Environment
	if err := envdecode.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	return &env, nil
}
