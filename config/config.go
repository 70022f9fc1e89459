package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/speakwise/pkg/configs"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name        string `mapstructure:"service_name" validate:"required"`
	Version     string `mapstructure:"version" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required"`
	Secret      string `mapstructure:"secret" validate:"required"`
	Host        string `mapstructure:"host" validate:"required"`
	Port        int    `mapstructure:"port" validate:"required"`
	LogLevel    string `mapstructure:"log_level" validate:"required"`
	LogPath     string `mapstructure:"log_path"`

	PostgresConfig    configs.PostgresConfig    `mapstructure:"postgres" validate:"required"`
	RedisConfig       configs.RedisConfig       `mapstructure:"redis" validate:"required"`
	AssetStoreConfig  configs.AssetStoreConfig  `mapstructure:"asset_store" validate:"required"`
	TranscriberConfig configs.TranscriberConfig `mapstructure:"transcriber" validate:"required"`
	AnalyzerConfig    configs.AnalyzerConfig    `mapstructure:"analyzer" validate:"required"`
	SchedulerConfig   configs.SchedulerConfig   `mapstructure:"scheduler" validate:"required"`
	MailerConfig      configs.MailerConfig      `mapstructure:"mailer"`

	// all the host which is required
	WebHost     string `mapstructure:"web_host" validate:"required"`
	WebhookHost string `mapstructure:"webhook_host"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	//
	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil {
		log.Printf("no .env file, reading from env variables")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	// keeping watch on https://github.com/spf13/viper/issues/188

	v.SetDefault("SERVICE_NAME", "session-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("SECRET", "")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9090)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")

	// all external host
	v.SetDefault("WEB_HOST", "http://localhost:3000")
	v.SetDefault("WEBHOOK_HOST", "")

	v.SetDefault("POSTGRES__HOST", "localhost")
	v.SetDefault("POSTGRES__PORT", 5432)
	v.SetDefault("POSTGRES__DB_NAME", "<>")
	v.SetDefault("POSTGRES__AUTH__USER", "<>")
	v.SetDefault("POSTGRES__AUTH__PASSWORD", "<>")
	v.SetDefault("POSTGRES__MAX_OPEN_CONNECTION", 10)
	v.SetDefault("POSTGRES__MAX_IDEAL_CONNECTION", 10)
	v.SetDefault("POSTGRES__SSL_MODE", "disable")
	v.SetDefault("POSTGRES__MIGRATE", false)
	v.SetDefault("POSTGRES__MIGRATION_PATH", "migrations")
	v.SetDefault("POSTGRES__CACHE__ENABLE", false)
	v.SetDefault("POSTGRES__CACHE__TTL_MS", 300)

	v.SetDefault("REDIS__HOST", "localhost")
	v.SetDefault("REDIS__PORT", 6379)
	v.SetDefault("REDIS__PASSWORD", "")
	v.SetDefault("REDIS__DATABASE", 0)

	v.SetDefault("ASSET_STORE__BUCKET", "<>")
	v.SetDefault("ASSET_STORE__REGION", "us-east-1")
	v.SetDefault("ASSET_STORE__ACCESS_KEY", "")
	v.SetDefault("ASSET_STORE__SECRET_KEY", "")
	v.SetDefault("ASSET_STORE__ENDPOINT", "")
	v.SetDefault("ASSET_STORE__PATH_STYLE", false)

	v.SetDefault("TRANSCRIBER__PROVIDER", "deepgram")
	v.SetDefault("TRANSCRIBER__API_KEY", "")
	v.SetDefault("TRANSCRIBER__MODEL", "")
	v.SetDefault("TRANSCRIBER__LANGUAGE", "en")
	v.SetDefault("TRANSCRIBER__SERVICE_ACCOUNT_KEY", "")
	v.SetDefault("TRANSCRIBER__PROJECT_ID", "")

	v.SetDefault("ANALYZER__PROVIDER", "openai")
	v.SetDefault("ANALYZER__API_KEY", "")
	v.SetDefault("ANALYZER__MODEL", "")
	v.SetDefault("ANALYZER__TOKEN_BUDGET", 0)
	v.SetDefault("ANALYZER__REGION", "")
	v.SetDefault("ANALYZER__ACCESS_KEY", "")
	v.SetDefault("ANALYZER__SECRET_KEY", "")

	v.SetDefault("SCHEDULER__URL", "")
	v.SetDefault("SCHEDULER__TOKEN", "")
	v.SetDefault("SCHEDULER__DESTINATION", "http://localhost:9090")
	v.SetDefault("SCHEDULER__CURRENT_SIGNING_KEY", "")
	v.SetDefault("SCHEDULER__NEXT_SIGNING_KEY", "")

	v.SetDefault("MAILER__PROVIDER", "")
	v.SetDefault("MAILER__SENDGRID_API_KEY", "")
	v.SetDefault("MAILER__FROM_EMAIL", "feedback@speakwise.io")
	v.SetDefault("MAILER__FROM_NAME", "SpeakWise")
	v.SetDefault("MAILER__OPS_EMAIL", "")
	v.SetDefault("MAILER__REGION", "")
	v.SetDefault("MAILER__ACCESS_KEY", "")
	v.SetDefault("MAILER__SECRET_KEY", "")
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}

	// valdating the app config
	validate := validator.New()
	err = validate.Struct(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	return &config, nil
}
