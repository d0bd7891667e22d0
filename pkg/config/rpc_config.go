package config

import (
	"errors"
)

// Default RPC limits.
const (
	DefaultMaxRequestBodyBytes   = 5 * 1024 * 1024
	DefaultMaxRequestHeaderBytes = 1024 * 1024
	DefaultMaxWebSocketClients   = 64
	DefaultMaxBatchSize          = 100
)

// RPC is an RPC service configuration information.
type RPC struct {
	BasicService          `yaml:",inline"`
	EnableCORSWorkaround  bool `yaml:"EnableCORSWorkaround"`
	MaxRequestBodyBytes   int  `yaml:"MaxRequestBodyBytes"`
	MaxRequestHeaderBytes int  `yaml:"MaxRequestHeaderBytes"`
	MaxWebSocketClients   int  `yaml:"MaxWebSocketClients"`
	// MaxBatchSize limits the number of requests in a JSON-RPC batch.
	MaxBatchSize int `yaml:"MaxBatchSize"`
}

// Validate checks RPC for internal consistency. It returns an error if the
// configuration is invalid.
func (cfg *RPC) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if len(cfg.Addresses) == 0 {
		return errors.New("RPC is enabled, but no addresses are given")
	}
	if cfg.MaxRequestBodyBytes <= 0 || cfg.MaxRequestHeaderBytes <= 0 {
		return errors.New("RPC request limits must be positive")
	}
	if cfg.MaxBatchSize <= 0 {
		return errors.New("MaxBatchSize must be positive")
	}
	return nil
}
