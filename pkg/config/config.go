package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glowsphere/glowsphere/pkg/core/storage/dbconfig"
	"gopkg.in/yaml.v3"
)

const (
	// UserAgentWrapper is a string that user agent string should be wrapped into.
	UserAgentWrapper = "/"
	// UserAgentPrefix is a prefix used to generate user agent string.
	UserAgentPrefix = "GLOWSPHERE:"
	// UserAgentFormat is a formatted string used to generate user agent string.
	UserAgentFormat = UserAgentWrapper + UserAgentPrefix + "%s" + UserAgentWrapper
	// DefaultConfigPath is the default path to the config directory.
	DefaultConfigPath = "./config"
	// DefaultConfigName is the name of the default node configuration file.
	DefaultConfigName = "protocol.glowsphere.yml"
)

// Version is the version of the node, set at the build time.
var Version string

// Config top level struct representing the config
// for the node.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// GenerateUserAgent creates a user agent string based on the build time environment.
func (c Config) GenerateUserAgent() string {
	return fmt.Sprintf(UserAgentFormat, Version)
}

// Default returns the configuration used when no file is given: an
// in-memory database, RPC on localhost:30333 and one-second blocks.
func Default() Config {
	return Config{
		ProtocolConfiguration: ProtocolConfiguration{
			TimePerBlock:                defaultTimePerBlock,
			MemPoolSize:                 defaultMemPoolSize,
			MaxTransactionsPerBlock:     defaultMaxTransactionsPerBlock,
			MaxValidUntilBlockIncrement: defaultMaxValidUntilBlockIncrement,
		},
		ApplicationConfiguration: ApplicationConfiguration{
			DBConfiguration: dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB},
			RPC: RPC{
				BasicService: BasicService{
					Enabled:   true,
					Addresses: []string{"localhost:30333"},
				},
				MaxRequestBodyBytes:   DefaultMaxRequestBodyBytes,
				MaxRequestHeaderBytes: DefaultMaxRequestHeaderBytes,
				MaxWebSocketClients:   DefaultMaxWebSocketClients,
				MaxBatchSize:          DefaultMaxBatchSize,
			},
		},
	}
}

// Load attempts to load the config from the given path (directory). The
// default config file name is used.
func Load(path string, relativePath ...string) (Config, error) {
	return LoadFile(filepath.Join(path, DefaultConfigName), relativePath...)
}

// LoadFile loads config from the provided path. It also applies backwards
// compatibility fixups if necessary. If relativePath is given, all relative
// paths of the config are resolved against it.
func LoadFile(configPath string, relativePath ...string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config '%s' doesn't exist", configPath)
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, fmt.Errorf("unable to read config: %w", err)
	}
	return LoadBytes(configData, relativePath...)
}

// LoadBytes parses the given YAML configuration on top of the defaults.
// Unknown fields are rejected.
func LoadBytes(configData []byte, relativePath ...string) (Config, error) {
	config := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err := decoder.Decode(&config)
	if err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}
	if len(relativePath) == 1 && relativePath[0] != "" {
		updateRelativePaths(relativePath[0], &config)
	}

	err = config.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

// updateRelativePaths updates relative paths in the config structure based on
// the provided relative path.
func updateRelativePaths(relativePath string, config *Config) {
	updatePath := func(path *string) {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(relativePath, *path)
		}
	}

	updatePath(&config.ApplicationConfiguration.DBConfiguration.LevelDBOptions.DataDirectoryPath)
	updatePath(&config.ApplicationConfiguration.DBConfiguration.BoltDBOptions.FilePath)
	updatePath(&config.ApplicationConfiguration.LogPath)
}

// Validate checks the configuration for internal consistency.
func (c Config) Validate() error {
	if err := c.ProtocolConfiguration.Validate(); err != nil {
		return err
	}
	return c.ApplicationConfiguration.Validate()
}

var errUnknownDB = errors.New("unknown database type")
