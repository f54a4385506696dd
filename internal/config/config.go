package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr            string `yaml:"addr"`
		ReadTimeout     string `yaml:"read_timeout"`
		WriteTimeout    string `yaml:"write_timeout"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Storage struct {
		// postgres | memory
		Driver   string `yaml:"driver"`
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		TTL   string `yaml:"ttl"` // TTL de resultados de verificación
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	JWT struct {
		Issuer    string `yaml:"issuer"`
		Secret    string `yaml:"secret"` // HS256; en prod viene de env
		AccessTTL string `yaml:"access_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		// Clients autorizados a pedir tokens; el secret va hasheado con bcrypt.
		Clients []APIClient `yaml:"clients"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Token   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"token"`
	} `yaml:"rate"`

	Scenarios struct {
		// Dir contiene los JSON fixture files del catálogo de escenarios.
		Dir string `yaml:"dir"`
	} `yaml:"scenarios"`

	Consent struct {
		// SweepInterval controla cada cuánto corre el barrido de expirados.
		SweepInterval string `yaml:"sweep_interval"`
	} `yaml:"consent"`
}

// APIClient es un cliente autorizado a usar el endpoint de tokens.
type APIClient struct {
	ID         string `yaml:"id"`
	SecretHash string `yaml:"secret_hash"`
}

// APIClients retorna los clientes como mapa id -> secret hash.
func (c *Config) APIClients() map[string]string {
	out := make(map[string]string, len(c.Auth.Clients))
	for _, cl := range c.Auth.Clients {
		if cl.ID != "" && cl.SecretHash != "" {
			out[cl.ID] = cl.SecretHash
		}
	}
	return out
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadOrDefault carga el YAML si existe. Con path vacío o inexistente
// arranca con defaults más overrides de entorno (modo dev / CLI).
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	var c Config
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// finish aplica defaults, overrides de entorno y validación.
func (c *Config) finish() error {
	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = "10s"
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = "30s"
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "15s"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "2m"
	}
	if c.JWT.AccessTTL == "" {
		c.JWT.AccessTTL = "15m"
	}
	if c.Rate.Token.Limit == 0 {
		c.Rate.Token.Limit = 10
	}
	if c.Rate.Token.Window == "" {
		c.Rate.Token.Window = "1m"
	}
	if c.Scenarios.Dir == "" {
		c.Scenarios.Dir = "testdata/scenarios"
	}
	if c.Consent.SweepInterval == "" {
		c.Consent.SweepInterval = "1h"
	}

	// validate string durations
	for _, d := range []string{
		c.Server.ReadTimeout, c.Server.WriteTimeout, c.Server.ShutdownTimeout,
		c.Cache.TTL, c.JWT.AccessTTL, c.Rate.Token.Window, c.Consent.SweepInterval,
	} {
		if _, err := time.ParseDuration(d); err != nil {
			return err
		}
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return err
		}
	}

	c.applyEnvOverrides()

	return c.Validate()
}

// applyEnvOverrides pisa valores del YAML con variables de entorno.
// Pensado para secretos y despliegues containerizados.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Storage.DSN = v
	}
	if v := os.Getenv("CACHE_KIND"); v != "" {
		c.Cache.Kind = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		c.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("SCENARIOS_DIR"); v != "" {
		c.Scenarios.Dir = v
	}
	// Un cliente API extra inyectado por entorno (deploys containerizados).
	if id := os.Getenv("API_CLIENT_ID"); id != "" {
		if hash := os.Getenv("API_CLIENT_SECRET_HASH"); hash != "" {
			c.Auth.Clients = append(c.Auth.Clients, APIClient{ID: id, SecretHash: hash})
		}
	}
}

// Validate chequea combinaciones inválidas antes de arrancar.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres":
		if strings.TrimSpace(c.Storage.DSN) == "" {
			return fmt.Errorf("storage.driver postgres requires storage.dsn")
		}
	case "memory":
		// nada que validar
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Cache.Kind {
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return fmt.Errorf("cache.kind redis requires cache.redis.addr")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown cache.kind %q", c.Cache.Kind)
	}

	if strings.EqualFold(c.App.Env, "prod") && strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required in prod (set JWT_SECRET)")
	}
	return nil
}

// Dur parsea una duración ya validada por Load.
func Dur(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
