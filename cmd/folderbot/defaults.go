package main

import "github.com/spf13/viper"

func applyDefaults() {
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "")

	viper.SetDefault("telegram.base_url", "")
	viper.SetDefault("telegram.poll_timeout", "30s")
	viper.SetDefault("telegram.drop_pending", true)

	viper.SetDefault("broadcast.send_delay", "150ms")

	viper.SetDefault("health.addr", ":8080")
}
