package conf

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/pgmcp/pgmcp/pkg/config"
)

const (
	AppName          = "pgmcp"
	ServerConfigName = "pgmcp-server"
	EnvPrefix        = "PGMCP"
	EnvConfigDir     = "PGMCP_DIR"
)

// LoadServiceConfig loads the server configuration: defaults, config
// file, environment, then command-line overrides.
func LoadServiceConfig(configPath string, cmdConf map[string]any) (*ServerConfig, *config.Manager, error) {

	if configPath == "" {
		configPath = os.Getenv(EnvConfigDir)
	}

	scm, err := config.New(AppName, configPath, ServerConfigName, EnvPrefix, false)
	if err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}

	config.SetDefaults(scm.Viper, ServerDefaults)

	// Load cmd Conf
	for key, value := range cmdConf {
		scm.SetConfig(key, value)
	}

	conf := &ServerConfig{}
	if err := scm.Load(conf); err != nil {
		log.Error().Err(err).Msg("load server config failed")
		return nil, nil, err
	}

	b, _ := json.Marshal(conf.Redacted())
	log.Info().Msgf("server config: %s", string(b))

	return conf, scm, nil
}
