package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/customeros/cardstack/internal/logger"
	"github.com/customeros/cardstack/internal/tracing"
)

type Config struct {
	AppConfig               *AppConfig
	Logger                  *logger.Config
	Tracing                 *tracing.JaegerConfig
	CardstackDatabaseConfig *CardstackDatabaseConfig
	R2StorageConfig         *R2StorageConfig
	AIConfig                *AIConfig
	MailConfig              *MailConfig
	OutreachConfig          *OutreachConfig
	ImportConfig            *ImportConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:               &AppConfig{},
		Logger:                  &logger.Config{},
		Tracing:                 &tracing.JaegerConfig{},
		CardstackDatabaseConfig: &CardstackDatabaseConfig{},
		R2StorageConfig:         &R2StorageConfig{},
		AIConfig:                &AIConfig{},
		MailConfig:              &MailConfig{},
		OutreachConfig:          &OutreachConfig{},
		ImportConfig:            &ImportConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading cardstack config")
	}

	if err = Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate runs the `validate` struct tags over every config group.
func Validate(config *Config) error {
	validate := validator.New()
	groups := []interface{}{
		config.AppConfig,
		config.Tracing,
		config.AIConfig,
		config.MailConfig,
		config.OutreachConfig,
	}
	for _, group := range groups {
		if err := validate.Struct(group); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}
	}
	return nil
}
