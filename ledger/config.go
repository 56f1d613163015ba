package ledger

// Config is a configuration for the ledger application
type Config struct {
	HTTPAddr string
}

func DefaultConfig() *Config {
	return &Config{
		HTTPAddr: "localhost:9090",
	}
}
