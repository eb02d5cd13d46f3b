// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the dashboard configuration.
type Config struct {
	Addr     string         `mapstructure:"addr"`
	Upstream UpstreamConfig `mapstructure:"upstream"`
	Live     LiveConfig     `mapstructure:"live"`
}

// UpstreamConfig describes the temperature server the dashboard relays.
type UpstreamConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LiveConfig controls the websocket chart updates.
// A zero Refresh disables them.
type LiveConfig struct {
	Refresh time.Duration `mapstructure:"refresh"`
}

func defaultConfig() Config {
	return Config{
		Addr: ":5000",
		Upstream: UpstreamConfig{
			URL:     "http://127.0.0.1:8080",
			Timeout: 10 * time.Second,
		},
		Live: LiveConfig{
			Refresh: 5 * time.Second,
		},
	}
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"addr":    "addr",
	"url":     "upstream.url",
	"timeout": "upstream.timeout",
	"refresh": "live.refresh",
}

// loadConfig reads the configuration from, in increasing precedence:
// defaults, the configuration file, TEMPMON_ environment variables and
// the command-line flags explicitly set in fset.
func loadConfig(fname string, fset *flag.FlagSet) (Config, error) {
	def := defaultConfig()

	v := viper.New()
	v.SetDefault("addr", def.Addr)
	v.SetDefault("upstream.url", def.Upstream.URL)
	v.SetDefault("upstream.timeout", def.Upstream.Timeout)
	v.SetDefault("live.refresh", def.Live.Refresh)

	v.SetEnvPrefix("tempmon")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	switch fname {
	case "":
		v.SetConfigName("temp-mon")
		v.AddConfigPath(".")
		err := v.ReadInConfig()
		if err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, errors.Wrap(err, "could not read config file")
			}
		}
	default:
		v.SetConfigFile(fname)
		err := v.ReadInConfig()
		if err != nil {
			return Config{}, errors.Wrapf(err, "could not read config file %q", fname)
		}
	}

	if fset != nil {
		fset.Visit(func(f *flag.Flag) {
			if key, ok := flagKeys[f.Name]; ok {
				v.Set(key, f.Value.String())
			}
		})
	}

	var cfg Config
	err := v.Unmarshal(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "could not decode config")
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration is usable.
func (cfg Config) Validate() error {
	if cfg.Addr == "" {
		return errors.New("config: empty listen address")
	}
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return errors.Wrapf(err, "config: invalid upstream url %q", cfg.Upstream.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("config: invalid upstream url scheme %q", cfg.Upstream.URL)
	}
	if u.Host == "" {
		return errors.Errorf("config: upstream url %q has no host", cfg.Upstream.URL)
	}
	if cfg.Upstream.Timeout < 0 {
		return errors.Errorf("config: negative upstream timeout (%v)", cfg.Upstream.Timeout)
	}
	if cfg.Live.Refresh < 0 {
		return errors.Errorf("config: negative live refresh interval (%v)", cfg.Live.Refresh)
	}
	return nil
}
