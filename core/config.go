package core

import (
	"fmt"
	"strings"
)

type OAuthConfig struct {
	ClientID     string `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret string `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri" mapstructure:"redirect_uri"`
	AuthURL      string `koanf:"auth_url" mapstructure:"auth_url"`
	TokenURL     string `koanf:"token_url" mapstructure:"token_url"`
	Scopes       string `koanf:"scopes" mapstructure:"scopes"`
}

type FlexConfig struct {
	RootURL string `koanf:"root_url" mapstructure:"root_url"`
}

type SignatureConfig struct {
	MaxAgeSeconds int `koanf:"max_age_seconds" mapstructure:"max_age_seconds"`
}

type Config struct {
	ServiceName string          `koanf:"service_name" mapstructure:"service_name"`
	OAuth       OAuthConfig     `koanf:"oauth" mapstructure:"oauth"`
	Flex        FlexConfig      `koanf:"flex" mapstructure:"flex"`
	Signature   SignatureConfig `koanf:"signature" mapstructure:"signature"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "flexconnect",
		Flex: FlexConfig{
			RootURL: "https://app.officernd.com",
		},
		Signature: SignatureConfig{
			MaxAgeSeconds: 300,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if c.Signature.MaxAgeSeconds < 0 {
		return fmt.Errorf("core: signature max_age_seconds must not be negative")
	}
	return nil
}
