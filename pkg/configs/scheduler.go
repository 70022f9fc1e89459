package configs

// SchedulerConfig configures the queue service that re-delivers pipeline jobs
// at-least-once. Url is the queue's publish endpoint, Destination the public
// base URL of this service the queue calls back into. The two signing keys
// support zero-downtime rotation: deliveries signed with either are accepted.
type SchedulerConfig struct {
	Url               string `mapstructure:"url"`
	Token             string `mapstructure:"token"`
	Destination       string `mapstructure:"destination" validate:"required"`
	CurrentSigningKey string `mapstructure:"current_signing_key" validate:"required"`
	NextSigningKey    string `mapstructure:"next_signing_key"`
}
