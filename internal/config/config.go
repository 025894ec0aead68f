// Package config loads the bridge's connection configuration from the
// environment. Configuration is a precondition for entering the
// dispatcher at all: absence of any required value short-circuits before
// any remote call.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix is the prefix for all configuration environment variables
// (PROXMOX_HOST, PROXMOX_USER, ...).
const envPrefix = "PROXMOX"

// defaultNode is the node name used when PROXMOX_NODE is unset and no
// --node flag was given.
const defaultNode = "pve"

// Config holds the Proxmox connection parameters for one invocation.
// It is constructed once at process start and passed down explicitly;
// there is no ambient global.
type Config struct {
	// Host is the Proxmox host IP or domain (PROXMOX_HOST).
	Host string

	// User is the Proxmox user, e.g. "root@pam" (PROXMOX_USER).
	User string

	// Password is the Proxmox password (PROXMOX_PASSWORD).
	Password string

	// Node is the target node name (PROXMOX_NODE, default "pve").
	Node string

	// VerifyTLS enables certificate verification (PROXMOX_VERIFY_SSL,
	// default false: Proxmox nodes commonly run self-signed).
	VerifyTLS bool
}

// Load reads configuration from PROXMOX_* environment variables.
// nodeOverride, when non-empty, takes precedence over PROXMOX_NODE.
func Load(nodeOverride string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetDefault("node", defaultNode)
	v.SetDefault("verify_ssl", false)

	cfg := &Config{
		Host:      strings.TrimSpace(v.GetString("host")),
		User:      strings.TrimSpace(v.GetString("user")),
		Password:  v.GetString("password"),
		Node:      strings.TrimSpace(v.GetString("node")),
		VerifyTLS: v.GetBool("verify_ssl"),
	}
	if nodeOverride != "" {
		cfg.Node = nodeOverride
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required connection parameters are present.
func (c *Config) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, envPrefix+"_HOST")
	}
	if c.User == "" {
		missing = append(missing, envPrefix+"_USER")
	}
	if c.Password == "" {
		missing = append(missing, envPrefix+"_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
