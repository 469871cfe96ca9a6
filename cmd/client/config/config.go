package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

type ClientConfig struct {
	RPCURL    string `yaml:"rpc_url"`
	EventsURL string `yaml:"events_url"`
	Account   string `yaml:"account"`
}

// LoadConfig reads a configuration file from the given path and unmarshals it
// into a ClientConfig struct.
func LoadConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.EventsURL == "" {
		cfg.EventsURL = cfg.RPCURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the endpoints are set and the account is an address.
func (c *ClientConfig) Validate() error {
	if c.RPCURL == "" {
		return errors.New("config: rpc_url is required")
	}
	if !common.IsHexAddress(c.Account) {
		return fmt.Errorf("config: invalid account %q", c.Account)
	}
	return nil
}

// AccountAddress returns the configured account.
func (c *ClientConfig) AccountAddress() common.Address {
	return common.HexToAddress(c.Account)
}
