package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr  string
	Debug bool

	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin"`
	DBPath        string        `env:"APP_DB_PATH" envDefault:"app.db"`
	BaseURL       string        `env:"BASE_URL"`
	TokenSecret   string        `env:"TOKEN_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL" envDefault:"30m"`
}

func Parse() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 8080, "listen port number (default 8080)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	err = env.Parse(&cfg)
	if err != nil {
		return
	}

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))

	if cfg.TokenSecret == "" {
		// sessions will not survive a restart with a random secret
		cfg.TokenSecret, err = randomSecret()
	}

	return
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	_, err := rand.Read(buf)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

// ExternalBaseURL is the address embedded in QR payloads when no base_url
// setting has been saved by the admin.
func (cfg Config) ExternalBaseURL() string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	return cfg.Url()
}
