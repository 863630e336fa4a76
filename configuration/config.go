package configuration

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ndau/simple-dao/commands"
	"github.com/ndau/simple-dao/dao"
	"github.com/ndau/simple-dao/models"
)

const (
	dbURL = "NDAU_CONNECTION_STRING"

	envPrefix  = "SIMPLEDAO"
	configName = "config"
	envSection = "env"
)

// searched in order for config.yaml
var configPaths = []string{".", "/etc/simple-dao"}

// New returns a viper instance reading config.yaml from the usual places, with
// SIMPLEDAO_ENV_* environment variables overriding the env section.
func New() (*viper.Viper, error) {
	v := newViper()
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "Failed reading the config file")
		}
	}
	return v, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadConfig ...
func LoadConfig(ctx context.Context, cfg *viper.Viper, log *zap.SugaredLogger) (*models.Config, error) {
	var ret models.Config
	log.Info("Get config from local file")
	envCfg := envSettings(cfg)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &ret,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(upperKeys(envCfg)); err != nil {
		return nil, errors.Wrap(err, "Failed decoding the env section")
	}

	if err := loadEnvConfig(envCfg, &ret); err != nil {
		return nil, err
	}
	if err := validate(&ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// envSettings merges the env section of the file with SIMPLEDAO_ENV_<KEY>
// variables. viper lower-cases every key.
func envSettings(cfg *viper.Viper) map[string]interface{} {
	dm := cfg.GetStringMap(envSection)
	for _, key := range []string{
		dbURL, "MEMBERS", "TOTAL_SUPPLY", "VOTING_PERIOD", "MIN_VOTES_REQUIRED", "ORGANIZATION",
		"CHAIN_URL", "BLOCK_INTERVAL", "PORT", "EVENT_PORT", "SINK_URL", "SOURCE",
	} {
		k := strings.ToLower(key)
		if v := cfg.Get(envSection + "." + k); v != nil {
			dm[k] = v
		}
	}
	return dm
}

func upperKeys(dm map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(dm))
	for k, v := range dm {
		out[strings.ToUpper(k)] = v
	}
	return out
}

func loadEnvConfig(dm map[string]interface{}, cfg *models.Config) error {
	//DB access
	val, ok := dm[dbURL]
	if !ok {
		val, ok = dm[strings.ToLower(dbURL)]
		if !ok {
			return fmt.Errorf("no field '%s' in the secret", dbURL)
		}
	}

	db, ok := val.(string)
	if !ok {
		return fmt.Errorf("field '%s' in the secret is not a string but a '%T'", dbURL, val)
	}
	cfg.ConnectionString = db

	return nil
}

func validate(cfg *models.Config) error {
	if len(cfg.Members) == 0 {
		return errors.New("MEMBERS must list at least one address")
	}
	for _, m := range cfg.Members {
		if _, err := commands.ParseAddress(m); err != nil {
			return errors.Wrap(err, "MEMBERS")
		}
	}
	if cfg.Organization != "" {
		if _, err := commands.ParseAddress(cfg.Organization); err != nil {
			return errors.Wrap(err, "ORGANIZATION")
		}
	}
	if cfg.VotingPeriod == 0 || cfg.VotingPeriod > dao.MaxHeight {
		return errors.Errorf("VOTING_PERIOD must be between 1 and %d", dao.MaxHeight)
	}
	if cfg.TotalSupply > dao.MaxAmount {
		return errors.Errorf("TOTAL_SUPPLY must be at most %d", dao.MaxAmount)
	}
	if cfg.ChainURL == "" && cfg.BlockInterval == 0 {
		return errors.New("either CHAIN_URL or BLOCK_INTERVAL must be set")
	}
	return nil
}
