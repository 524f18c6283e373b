package config

// Application info
const (
	AppName = "Olist Analytics"

	// DefaultConfigFile is looked up in the working directory when
	// OLIST_CONFIG_FILE is not set.
	DefaultConfigFile = "config.yaml"
)
