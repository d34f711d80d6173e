package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// VenueConfig registers a venue and its pool asset pair at startup.
type VenueConfig struct {
	Address string `toml:"Address"`
	Asset0  string `toml:"Asset0"`
	Asset1  string `toml:"Asset1"`
}

// Config captures the bondd daemon settings.
type Config struct {
	ListenAddress string        `toml:"ListenAddress"`
	DataDir       string        `toml:"DataDir"`
	VaultAddress  string        `toml:"VaultAddress"`
	Environment   string        `toml:"Environment"`
	Venues        []VenueConfig `toml:"Venues"`
}

const defaultConfig = `ListenAddress = ":8645"
DataDir = "./bondd-data"
VaultAddress = "0x0000000000000000000000000000000000000b0d"
Environment = "dev"
`

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return nil, err
	}
	cfg := &Config{}
	if _, err := toml.Decode(defaultConfig, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks addresses and venue entries.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ListenAddress) == "" {
		return fmt.Errorf("config: ListenAddress required")
	}
	if _, err := parseAddress(c.VaultAddress); err != nil {
		return fmt.Errorf("config: VaultAddress: %w", err)
	}
	for i, venue := range c.Venues {
		if _, err := parseAddress(venue.Address); err != nil {
			return fmt.Errorf("config: Venues[%d].Address: %w", i, err)
		}
		if strings.TrimSpace(venue.Asset0) == "" || strings.TrimSpace(venue.Asset1) == "" {
			return fmt.Errorf("config: Venues[%d] requires both pool assets", i)
		}
	}
	return nil
}

// Vault returns the parsed vault address.
func (c *Config) Vault() ([20]byte, error) {
	return parseAddress(c.VaultAddress)
}

// VenueAddress returns the parsed address for a venue entry.
func (v VenueConfig) VenueAddress() ([20]byte, error) {
	return parseAddress(v.Address)
}

func parseAddress(s string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(s)
	if !common.IsHexAddress(trimmed) {
		return addr, fmt.Errorf("invalid address %q", s)
	}
	copy(addr[:], common.HexToAddress(trimmed).Bytes())
	return addr, nil
}
