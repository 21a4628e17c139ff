package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvPath returns the absolute path to assessrec's dotenv file (~/.assessrec/.env).
func DotEnvPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ".env"), nil
}

// LoadDotEnv reads ~/.assessrec/.env into the process environment.
// Existing environment variables are never overwritten, so explicit env vars
// always win over the dotenv file. A missing file is not an error.
func LoadDotEnv() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}
	if err := godotenv.Load(p); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot load dotenv file %s: %w", p, err)
	}
	return nil
}

// GetConfigValue returns the effective value for key from the process
// environment. Call LoadDotEnv first so ~/.assessrec/.env keys are visible.
func GetConfigValue(key string) string {
	return os.Getenv(key)
}

// EnsureDotEnvTemplate creates ~/.assessrec/.env if it does not already exist.
//
// The template contains configuration keys with empty values so users can fill
// them in before building an index or serving recommendations.
func EnsureDotEnvTemplate() error {
	p, err := DotEnvPath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(p); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("cannot stat dotenv file %s: %w", p, err)
	}

	body := "" +
		"ASSESSREC_EMBEDDINGS_MODEL=\n" +
		"ASSESSREC_EMBEDDINGS_API_KEY=\n" +
		"ASSESSREC_EMBEDDINGS_BASE_URL=\n" +
		"ASSESSREC_ENRICH_MODEL=\n" +
		"ASSESSREC_ENRICH_API_KEY=\n"

	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		return fmt.Errorf("cannot write dotenv template %s: %w", p, err)
	}
	return nil
}
