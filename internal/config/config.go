package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Database struct {
		Path string
	}
	Auth struct {
		JWTSecret       string
		JWTAlgorithm    string
		TokenTTLMinutes int
		LinkTTLMinutes  int
	}
	Frontend struct {
		BaseURL string
	}
	Email struct {
		Provider      string // "console" or "ses"
		SenderAddress string
		SenderName    string
	}
	AWS struct {
		Region  string
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv()

	v := viper.New()
	v.SetEnvPrefix("POLITO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("database.path", "data/polito.db")
	v.SetDefault("auth.jwtsecret", "")
	v.SetDefault("auth.jwtalgorithm", "HS256")
	v.SetDefault("auth.tokenttlminutes", 60*24*7)
	v.SetDefault("auth.linkttlminutes", 15)
	v.SetDefault("frontend.baseurl", "http://localhost:5173")
	v.SetDefault("email.provider", "console")
	v.SetDefault("email.senderaddress", "noreply@polito-log.lt")
	v.SetDefault("email.sendername", "Polito-Log")
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv() {
	file, err := os.Open(".env")
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
