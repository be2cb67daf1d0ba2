package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/kubepulse/internal/logging"
	"github.com/ppiankov/kubepulse/internal/monitor"
	"github.com/ppiankov/kubepulse/internal/ratelimit"
	"github.com/ppiankov/kubepulse/internal/server"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// Viper keys. Environment variables are KUBEPULSE_ plus the key with dashes
// turned into underscores.
const (
	keyKubeconfig      = "kubeconfig"
	keyAddress         = "address"
	keyInterval        = "interval"
	keyLogLevel        = "log-level"
	keyCheckLogLevel   = "check-log-level"
	keyLogFormat       = "log-format"
	keyLogFile         = "log-file"
	keyShutdownTimeout = "shutdown-timeout"
	keyMaxBodyBytes    = "max-body-bytes"
	keyPolicyRate      = "policy-rate-limit"
	keyPolicyRateNS    = "policy-rate-limit-per-namespace"
	keyPolicyWindow    = "policy-rate-window"
)

const (
	defaultAddress       = ":8080"
	defaultCheckLogLevel = "debug"
)

// ServeConfig is the resolved sidecar configuration.
type ServeConfig struct {
	Kubeconfig      string
	Address         string
	Interval        time.Duration
	CheckLevel      zapcore.Level
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
	RateLimit       ratelimit.Config
	Logging         logging.Config
}

// Monitor returns the poller configuration.
func (c ServeConfig) Monitor() monitor.Config {
	return monitor.Config{Interval: c.Interval, CheckLevel: c.CheckLevel}
}

func loggingConfig(v *viper.Viper) (logging.Config, error) {
	cfg := logging.DefaultConfig()
	if s := v.GetString(keyLogLevel); s != "" {
		cfg.Level = s
	}
	if s := v.GetString(keyLogFormat); s != "" {
		cfg.Format = s
	}
	cfg.File = v.GetString(keyLogFile)

	if _, err := logging.ParseLevel(cfg.Level); err != nil {
		return cfg, err
	}
	if cfg.Format != logging.FormatJSON && cfg.Format != logging.FormatConsole {
		return cfg, fmt.Errorf("invalid log format %q (want %s or %s)", cfg.Format, logging.FormatJSON, logging.FormatConsole)
	}
	return cfg, nil
}

// loadServeConfig resolves and validates the sidecar configuration.
func loadServeConfig(v *viper.Viper) (ServeConfig, error) {
	logCfg, err := loggingConfig(v)
	if err != nil {
		return ServeConfig{}, err
	}

	cfg := ServeConfig{
		Kubeconfig:      v.GetString(keyKubeconfig),
		Address:         v.GetString(keyAddress),
		ShutdownTimeout: v.GetDuration(keyShutdownTimeout),
		MaxBodyBytes:    v.GetInt64(keyMaxBodyBytes),
		Logging:         logCfg,
		RateLimit: ratelimit.Config{
			MaxGlobal:       v.GetInt(keyPolicyRate),
			MaxPerNamespace: v.GetInt(keyPolicyRateNS),
			Window:          v.GetDuration(keyPolicyWindow),
		},
	}

	var errs []error

	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}

	seconds := v.GetInt(keyInterval)
	if seconds <= 0 {
		errs = append(errs, fmt.Errorf("interval must be a positive number of seconds, got %d", seconds))
	}
	cfg.Interval = time.Duration(seconds) * time.Second

	checkLevel := v.GetString(keyCheckLogLevel)
	if checkLevel == "" {
		checkLevel = defaultCheckLogLevel
	}
	if cfg.CheckLevel, err = logging.ParseLevel(checkLevel); err != nil {
		errs = append(errs, fmt.Errorf("check log level: %w", err))
	}

	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("shutdown timeout must not be negative, got %s", cfg.ShutdownTimeout))
	} else if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = server.DefaultShutdownTimeout
	}

	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("max body bytes must not be negative, got %d", cfg.MaxBodyBytes))
	} else if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = server.DefaultMaxBodyBytes
	}

	if cfg.RateLimit.MaxGlobal < 0 || cfg.RateLimit.MaxPerNamespace < 0 {
		errs = append(errs, fmt.Errorf("policy rate limits must not be negative"))
	}
	if cfg.RateLimit.Window < 0 {
		errs = append(errs, fmt.Errorf("policy rate window must not be negative, got %s", cfg.RateLimit.Window))
	} else if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = ratelimit.DefaultWindow
	}

	if err := errors.Join(errs...); err != nil {
		return ServeConfig{}, err
	}
	return cfg, nil
}
