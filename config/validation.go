package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	env := GetEnvironment()

	var errors []string

	if cfg.OpenAIAPIKey == "" {
		errors = append(errors, ValidationError{"OPENAI_API_KEY", "is required"}.Error())
	}
	if cfg.WebhookURL == "" {
		errors = append(errors, ValidationError{"WEBHOOK_URL", "is required"}.Error())
	}

	switch cfg.StoreDriver {
	case StorePostgres:
		if cfg.DBHost == "" {
			errors = append(errors, ValidationError{"DB_HOST", "is required for the postgres store"}.Error())
		}
		if cfg.DBName == "" {
			errors = append(errors, ValidationError{"DB_NAME", "is required for the postgres store"}.Error())
		}
		if cfg.DBUser == "" {
			errors = append(errors, ValidationError{"DB_USER", "is required for the postgres store"}.Error())
		}
	case StoreSQLite:
		if env == Production {
			errors = append(errors, ValidationError{"STORE_DRIVER", "sqlite is not allowed in production"}.Error())
		}
	case StoreFirestore:
		if cfg.FirestoreProjectID == "" {
			errors = append(errors, ValidationError{"FIRESTORE_PROJECT_ID", "is required for the firestore store"}.Error())
		}
	default:
		errors = append(errors, ValidationError{"STORE_DRIVER", fmt.Sprintf("unknown driver %q", cfg.StoreDriver)}.Error())
	}

	if cfg.PGNotify && cfg.StoreDriver != StorePostgres {
		errors = append(errors, ValidationError{"PG_NOTIFY", "requires the postgres store"}.Error())
	}

	// Sessions must be signed with a real secret outside development and test
	if cfg.JWTSecret == "" {
		if env == Production || env == CI {
			errors = append(errors, ValidationError{"JWT_SECRET", "is required"}.Error())
		} else {
			cfg.JWTSecret = "development-secret"
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
