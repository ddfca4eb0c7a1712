package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// RunConfig holds configuration for the replay run, merged from flags,
// env, or config file.
type RunConfig struct {
	Input     string
	Out       string
	PGDSN     string
	StateFile string
	BatchSize int
	FeeBps    uint64
	LogLevel  string
}

// LoadRun merges config file, environment variables, and flags into RunConfig.
func LoadRun(cfgFile string, flags *pflag.FlagSet) (RunConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return RunConfig{}, err
	}

	v.SetDefault("out", "./data/history.jsonl")
	v.SetDefault("batch-size", 1000)
	v.SetDefault("fee-bps", uint64(30))
	v.SetDefault("log-level", "info")

	cfg := RunConfig{
		Input:     v.GetString("in"),
		Out:       v.GetString("out"),
		PGDSN:     v.GetString("pg-dsn"),
		StateFile: v.GetString("state-file"),
		BatchSize: v.GetInt("batch-size"),
		FeeBps:    v.GetUint64("fee-bps"),
		LogLevel:  v.GetString("log-level"),
	}

	return cfg, nil
}

// QuoteConfig holds configuration for one-off quotes.
type QuoteConfig struct {
	ReserveIn  string
	ReserveOut string
	AmountIn   string
	AmountOut  string
	FeeBps     uint64
	LogLevel   string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return QuoteConfig{}, err
	}

	v.SetDefault("fee-bps", uint64(30))
	v.SetDefault("log-level", "info")

	cfg := QuoteConfig{
		ReserveIn:  v.GetString("reserve-in"),
		ReserveOut: v.GetString("reserve-out"),
		AmountIn:   v.GetString("amount-in"),
		AmountOut:  v.GetString("amount-out"),
		FeeBps:     v.GetUint64("fee-bps"),
		LogLevel:   v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("SWAPSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}
