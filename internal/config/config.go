// Package config carga la configuración del servicio desde YAML con
// overrides por variables de entorno (las env pisan al archivo).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ProviderCredentials son las credenciales de app de un proveedor OAuth.
type ProviderCredentials struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	RedirectURI  string   `yaml:"redirect_uri"`
	Scopes       []string `yaml:"scopes"`
}

// Enabled indica si el proveedor tiene configuración completa.
// Un proveedor incompleto se saltea al armar el registry (con warning).
func (p ProviderCredentials) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != "" && p.RedirectURI != ""
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Cache struct {
		Driver string `yaml:"driver"` // "memory" | "redis"
		Prefix string `yaml:"prefix"`
		Redis  struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Handoff struct {
		// TTL de state/verifier/credenciales en el store transitorio.
		TTL string `yaml:"ttl"`
	} `yaml:"handoff"`

	Providers struct {
		Airtable ProviderCredentials `yaml:"airtable"`
		HubSpot  ProviderCredentials `yaml:"hubspot"`
		Notion   ProviderCredentials `yaml:"notion"`
	} `yaml:"providers"`
}

// HandoffTTL parsea el TTL configurado; Load ya validó el formato.
func (c *Config) HandoffTTL() time.Duration {
	d, _ := time.ParseDuration(c.Handoff.TTL)
	return d
}

// Load lee el YAML (si path existe), aplica defaults, overrides por env y
// valida. Con path vacío arranca solo de defaults + env.
func Load(path string) (*Config, error) {
	var c Config

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"http://localhost:3000"}
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "integrationhub"
	}
	if c.Handoff.TTL == "" {
		c.Handoff.TTL = "600s"
	}

	c.applyEnvOverrides()

	if _, err := time.ParseDuration(c.Handoff.TTL); err != nil {
		return nil, fmt.Errorf("config: invalid handoff.ttl: %w", err)
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return nil, fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}

	return &c, nil
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}

	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("CACHE_PREFIX"); ok {
		c.Cache.Prefix = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("HANDOFF_TTL"); ok {
		c.Handoff.TTL = v
	}

	overrideProvider(&c.Providers.Airtable, "AIRTABLE")
	overrideProvider(&c.Providers.HubSpot, "HUBSPOT")
	overrideProvider(&c.Providers.Notion, "NOTION")
}

func overrideProvider(p *ProviderCredentials, prefix string) {
	if v, ok := getEnvStr(prefix + "_CLIENT_ID"); ok {
		p.ClientID = v
	}
	if v, ok := getEnvStr(prefix + "_CLIENT_SECRET"); ok {
		p.ClientSecret = v
	}
	if v, ok := getEnvStr(prefix + "_REDIRECT_URI"); ok {
		p.RedirectURI = v
	}
	if v, ok := getEnvCSV(prefix + "_SCOPES"); ok {
		p.Scopes = v
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		if strings.TrimSpace(s) == "" {
			return []string{}, true
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}
