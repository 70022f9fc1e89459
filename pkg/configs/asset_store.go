package configs

// AssetStoreConfig configures the S3-compatible object store holding raw
// session audio. Endpoint is only set for non-AWS deployments (MinIO and
// friends), which also require path-style addressing.
type AssetStoreConfig struct {
	Bucket    string `mapstructure:"bucket" validate:"required"`
	Region    string `mapstructure:"region" validate:"required"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}
