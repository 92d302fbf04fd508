// Copyright (c) 2022 NTT Communications Corporation
//
// This software is released under the MIT License.
// see https://github.com/nttcom/pola/blob/main/LICENSE

package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

type Log struct {
	Path  string `yaml:"path"`
	Name  string `yaml:"name"`
	Debug bool   `yaml:"debug"`
}

type Gobgp struct {
	Address string `yaml:"address"`
	Port    string `yaml:"port"`
}

type Ted struct {
	Enable   bool `yaml:"enable"`
	Interval int  `yaml:"interval"` // seconds between syncs from gobgpd
}

type Global struct {
	Log   Log   `yaml:"log"`
	Gobgp Gobgp `yaml:"gobgp"`
	Ted   Ted   `yaml:"ted"`
}

type Config struct {
	Global Global `yaml:"global"`
}

const (
	defaultLogName     = "bgplsd.log"
	defaultGobgpPort   = "50051"
	defaultTedInterval = 10
)

func ReadConfigFile(configFile string) (Config, error) {
	c := new(Config)

	f, err := os.Open(configFile)
	if err != nil {
		return *c, err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return *c, err
	}
	c.setDefaults()
	return *c, c.validate()
}

func (c *Config) setDefaults() {
	if c.Global.Log.Name == "" {
		c.Global.Log.Name = defaultLogName
	}
	if c.Global.Gobgp.Port == "" {
		c.Global.Gobgp.Port = defaultGobgpPort
	}
	if c.Global.Ted.Interval == 0 {
		c.Global.Ted.Interval = defaultTedInterval
	}
}

func (c *Config) validate() error {
	if c.Global.Ted.Enable && c.Global.Gobgp.Address == "" {
		return errors.New("global.gobgp.address is required when the TED is enabled")
	}
	if c.Global.Ted.Interval < 0 {
		return errors.New("global.ted.interval must be positive")
	}
	return nil
}
