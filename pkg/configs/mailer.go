package configs

// MailerConfig configures outbound notification mail. Provider selects the
// sender ("sendgrid" or "ses"); without one configured, mail is disabled
// entirely. OpsEmail receives pipeline-failure alerts.
type MailerConfig struct {
	Provider  string `mapstructure:"provider"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
	OpsEmail  string `mapstructure:"ops_email"`

	SendgridApiKey string `mapstructure:"sendgrid_api_key"`

	// SES-specific: region is required, keys fall back to the default AWS
	// credential chain when empty.
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}
