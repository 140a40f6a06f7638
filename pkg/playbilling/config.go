package playbilling

import "time"

// Scope is the OAuth scope required by the Android Publisher API.
const Scope = "https://www.googleapis.com/auth/androidpublisher"

// DefaultBaseURL is the Android Publisher API host.
const DefaultBaseURL = "https://androidpublisher.googleapis.com"

// MinTokenLength is the shortest purchase token accepted by Verify.
const MinTokenLength = 10

type Config struct {
	PackageName         string        `env:"PLAY_PACKAGE_NAME"`
	CredentialsFile     string        `env:"PLAY_CREDENTIALS_FILE" envDefault:"play-console-validator.json"`
	CredentialsJSON     string        `env:"PLAY_CREDENTIALS_JSON"`
	BaseURL             string        `env:"PLAY_API_BASE_URL" envDefault:"https://androidpublisher.googleapis.com"`
	Timeout             time.Duration `env:"PLAY_VERIFY_TIMEOUT" envDefault:"10s"`
	UnknownStateDefault string        `env:"PLAY_UNKNOWN_STATE_DEFAULT" envDefault:"active"`
	CircuitThreshold    int           `env:"PLAY_CIRCUIT_FAILURE_THRESHOLD" envDefault:"5"`
	CircuitRecovery     time.Duration `env:"PLAY_CIRCUIT_RECOVERY" envDefault:"30s"`
}
