package conf

import "time"

// ServerDefaults holds the default value for every server config key.
var ServerDefaults = map[string]interface{}{
	"http_addr":    "0.0.0.0:8000",
	"api_key":      "",
	"backend":      "auto",
	"call_timeout": "30s",
	"pg_host":      "localhost",
	"pg_port":      5432,
	"pg_user":      "postgres",
	"pg_password":  "",
	"pg_dbname":    "pgmcp",
	"debug":        false,
}

// ServerConfig is the full configuration of the gateway server.
type ServerConfig struct {
	HTTPAddr    string        `json:"http_addr" mapstructure:"http_addr"`
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	Backend     string        `json:"backend" mapstructure:"backend"`
	CallTimeout time.Duration `json:"call_timeout" mapstructure:"call_timeout"`
	PGHost      string        `json:"pg_host" mapstructure:"pg_host"`
	PGPort      int           `json:"pg_port" mapstructure:"pg_port"`
	PGUser      string        `json:"pg_user" mapstructure:"pg_user"`
	PGPassword  string        `json:"pg_password" mapstructure:"pg_password"`
	PGDBName    string        `json:"pg_dbname" mapstructure:"pg_dbname"`
	Debug       bool          `json:"debug" mapstructure:"debug"`
}

func (c *ServerConfig) GetHTTPAddr() string {
	return c.HTTPAddr
}

func (c *ServerConfig) GetAPIKey() string {
	return c.APIKey
}

func (c *ServerConfig) GetBackendMode() string {
	return c.Backend
}

func (c *ServerConfig) GetCallTimeout() time.Duration {
	return c.CallTimeout
}

// Redacted returns a copy safe for logging. Credentials are masked,
// never printed.
func (c *ServerConfig) Redacted() *ServerConfig {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "******"
	}
	if out.PGPassword != "" {
		out.PGPassword = "******"
	}
	return &out
}
