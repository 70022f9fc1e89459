package configs

import "fmt"

// PostgresAuthConfig carries database credentials, nested so they map from
// POSTGRES__AUTH__* environment keys.
type PostgresAuthConfig struct {
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// PostgresCacheConfig toggles the gorm query cache backed by redis.
type PostgresCacheConfig struct {
	Enable bool `mapstructure:"enable"`
	TtlMs  int  `mapstructure:"ttl_ms"`
}

type PostgresConfig struct {
	Host               string              `mapstructure:"host" validate:"required"`
	Port               int                 `mapstructure:"port" validate:"required"`
	DbName             string              `mapstructure:"db_name" validate:"required"`
	Auth               PostgresAuthConfig  `mapstructure:"auth"`
	MaxOpenConnection  int                 `mapstructure:"max_open_connection"`
	MaxIdealConnection int                 `mapstructure:"max_ideal_connection"`
	SslMode            string              `mapstructure:"ssl_mode"`
	Migrate            bool                `mapstructure:"migrate"`
	MigrationPath      string              `mapstructure:"migration_path"`
	Cache              PostgresCacheConfig `mapstructure:"cache"`
}

// Dsn renders the gorm connection string.
func (c PostgresConfig) Dsn() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.Auth.User, c.Auth.Password, c.DbName, c.Port, c.SslMode,
	)
}

// Url renders the URL form used by golang-migrate.
func (c PostgresConfig) Url() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Auth.User, c.Auth.Password, c.Host, c.Port, c.DbName, c.SslMode,
	)
}
