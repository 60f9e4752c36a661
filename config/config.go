package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Renderer     Renderer
	Notification Notification
	Sweep        Sweep
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Renderer points at the external certificate rendering service. When BaseURL
// is empty the local fallback renderer is used instead.
type Renderer struct {
	BaseURL string
}

type Notification struct {
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// Sweep configures the overdue-attempt expiry job. Spec is a cron expression.
type Sweep struct {
	Spec string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetDefault("SWEEP_SPEC", "@every 1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Renderer.BaseURL = viper.GetString("RENDERER_BASE_URL")
	config.Notification.SendGridAPIKey = viper.GetString("SENDGRID_API_KEY")
	config.Notification.FromEmail = viper.GetString("NOTIFICATION_FROM_EMAIL")
	config.Notification.FromName = viper.GetString("NOTIFICATION_FROM_NAME")
	config.Sweep.Spec = viper.GetString("SWEEP_SPEC")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}
