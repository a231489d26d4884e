package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url" default:"redis://localhost:6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db" default:"0"`
		Timeout  time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"redis"`

	Postgres struct {
		DSN             string        `yaml:"dsn"`
		MaxConns        int           `yaml:"max_conns" default:"10"`
		ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"10s"`
		StatementCache  bool          `yaml:"statement_cache" default:"true"`
		ApplicationName string        `yaml:"application_name" default:"jobdesk-core"`
	} `yaml:"postgres"`

	OTP struct {
		Digits         int           `yaml:"digits" default:"6"`
		TTL            time.Duration `yaml:"ttl" default:"10m"`
		MaxAttempts    int           `yaml:"max_attempts" default:"5"`
		ResendInterval time.Duration `yaml:"resend_interval" default:"60s"`
	} `yaml:"otp"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl" default:"24h"`
		Issuer    string        `yaml:"issuer" default:"jobdesk-core"`
	} `yaml:"auth"`

	Match struct {
		MinScore int `yaml:"min_score" default:"40"` // threshold for stored-profile matches and alerts
	} `yaml:"match"`

	Digest struct {
		Enabled  bool   `yaml:"enabled" default:"true"`
		Schedule string `yaml:"schedule" default:"@every 6h"`
	} `yaml:"digest"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	// Expand ${VAR} syntax
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	// Expand $VAR syntax (but avoid replacing ${VAR} that was already processed)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if env var not found
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.Postgres.MaxConns = 10
	config.Postgres.ConnectTimeout = 10 * time.Second
	config.Postgres.StatementCache = true
	config.Postgres.ApplicationName = "jobdesk-core"

	config.OTP.Digits = 6
	config.OTP.TTL = 10 * time.Minute
	config.OTP.MaxAttempts = 5
	config.OTP.ResendInterval = 60 * time.Second

	config.Auth.TokenTTL = 24 * time.Hour
	config.Auth.Issuer = "jobdesk-core"

	config.Match.MinScore = 40

	config.Digest.Enabled = true
	config.Digest.Schedule = "@every 6h"

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			// Expand environment variables in the YAML content
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Postgres.DSN = dsn
	}

	if maxConns := os.Getenv("POSTGRES_MAX_CONNS"); maxConns != "" {
		if n, err := strconv.Atoi(maxConns); err == nil {
			c.Postgres.MaxConns = n
		}
	}

	if otpTTL := os.Getenv("OTP_TTL"); otpTTL != "" {
		if ttl, err := time.ParseDuration(otpTTL); err == nil {
			c.OTP.TTL = ttl
		}
	}

	if otpAttempts := os.Getenv("OTP_MAX_ATTEMPTS"); otpAttempts != "" {
		if n, err := strconv.Atoi(otpAttempts); err == nil {
			c.OTP.MaxAttempts = n
		}
	}

	if resend := os.Getenv("OTP_RESEND_INTERVAL"); resend != "" {
		if d, err := time.ParseDuration(resend); err == nil {
			c.OTP.ResendInterval = d
		}
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}

	if tokenTTL := os.Getenv("JWT_TOKEN_TTL"); tokenTTL != "" {
		if ttl, err := time.ParseDuration(tokenTTL); err == nil {
			c.Auth.TokenTTL = ttl
		}
	}

	if minScore := os.Getenv("MATCH_MIN_SCORE"); minScore != "" {
		if n, err := strconv.Atoi(minScore); err == nil {
			c.Match.MinScore = n
		}
	}

	if digestEnabled := os.Getenv("DIGEST_ENABLED"); digestEnabled != "" {
		c.Digest.Enabled = digestEnabled == "true" || digestEnabled == "1"
	}

	if schedule := os.Getenv("DIGEST_SCHEDULE"); schedule != "" {
		c.Digest.Schedule = schedule
	}
}
