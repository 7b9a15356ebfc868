/**
 * @description
 * This file handles the configuration management for the card service.
 * It uses the 'viper' library to load configuration from environment
 * variables, providing a centralized and consistent way to manage
 * application settings.
 */
package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort                 string `mapstructure:"SERVER_PORT"`
	DatabaseURL                string `mapstructure:"DATABASE_URL"`
	RabbitMQURL                string `mapstructure:"RABBITMQ_URL"`
	JWTSecret                  string `mapstructure:"JWT_SECRET"`
	SessionTokenTTLHours       int    `mapstructure:"SESSION_TOKEN_TTL_HOURS"`
	SupportWhatsApp            string `mapstructure:"SUPPORT_WHATSAPP"`
	SubscriptionExpirySchedule string `mapstructure:"SUBSCRIPTION_EXPIRY_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SESSION_TOKEN_TTL_HOURS", 72)
	viper.SetDefault("SUPPORT_WHATSAPP", "+5352123456")
	// Hourly is fine: expiry only needs to beat the user's next refetch by a
	// human timescale.
	viper.SetDefault("SUBSCRIPTION_EXPIRY_SCHEDULE", "0 * * * *")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("SESSION_TOKEN_TTL_HOURS")
	_ = viper.BindEnv("SUPPORT_WHATSAPP")
	_ = viper.BindEnv("SUBSCRIPTION_EXPIRY_SCHEDULE")

	err = viper.Unmarshal(&config)
	return
}
