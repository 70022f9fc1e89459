package configs

// TranscriberConfig selects and configures the speech-to-text vendor.
// Credentials are deliberately not validated here: a missing key surfaces on
// first use, so deployments without the feature can still boot.
type TranscriberConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	ApiKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	Language string `mapstructure:"language"`

	// Google-specific: service account JSON and quota project.
	ServiceAccountKey string `mapstructure:"service_account_key"`
	ProjectId         string `mapstructure:"project_id"`
}

// AnalyzerConfig selects and configures the pattern-analysis vendor.
type AnalyzerConfig struct {
	Provider string `mapstructure:"provider" validate:"required"`
	ApiKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`

	// TokenBudget caps how much transcript is sent to the model. Zero means
	// the analyzer default.
	TokenBudget int `mapstructure:"token_budget"`

	// Bedrock-specific: region is required, keys fall back to the default
	// AWS credential chain when empty.
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}
