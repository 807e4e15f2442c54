// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/go-kit/kit/log/level"
	"github.com/komkom/toml"

	"github.com/collapse-im/go-collapse/reputation"
)

type replConfig struct {
	Repo           string  `json:"repo,omitempty"`
	MetricsAddress string  `json:"debuglis,omitempty"`
	RewardStep     float64 `json:"rewardstep,omitempty"`
	PunishStep     float64 `json:"punishstep,omitempty"`
	AdmitThreshold float64 `json:"admitthreshold,omitempty"`
}

// loadConfig reads a TOML config by piping it through the toml-to-json
// reader. A missing file just means defaults.
func loadConfig(path string) replConfig {
	var conf replConfig

	data, err := os.ReadFile(path)
	if err != nil {
		level.Debug(log).Log("event", "read config", "msg", "no config detected", "path", path)
		return conf
	}
	level.Info(log).Log("event", "read config", "path", path)

	decoder := json.NewDecoder(toml.New(bytes.NewBuffer(data)))
	if err := decoder.Decode(&conf); err != nil {
		level.Warn(log).Log("event", "read config", "err", err, "path", path)
		return replConfig{}
	}
	return conf
}

// bookOptions turns the tunables into reputation options.
func (c replConfig) bookOptions() []reputation.Option {
	var opts []reputation.Option
	if c.RewardStep > 0 {
		opts = append(opts, reputation.WithRewardStep(c.RewardStep))
	}
	if c.PunishStep > 0 {
		opts = append(opts, reputation.WithPunishStep(c.PunishStep))
	}
	if c.AdmitThreshold > 0 {
		opts = append(opts, reputation.WithAdmitThreshold(c.AdmitThreshold))
	}
	return opts
}
