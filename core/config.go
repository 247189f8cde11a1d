package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host string
		Addr string
	}

	SessionConfig struct {
		CookieName string
		// AccessTokenDelta is the fallback access token lifetime when the
		// identity provider omits expires_in.
		AccessTokenDelta time.Duration
		// RefreshDelta is the window after the first sign-in during which an
		// expired access token may still be refreshed.
		RefreshDelta time.Duration
	}

	IdentityConfig struct {
		BaseURL string
		APIKey  string
		Timeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	Config struct {
		Env              string
		Debug            bool
		TestMode         bool
		Build            string
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridApiKey   string
		RollbarToken     string

		Server   ServerConfig
		Session  SessionConfig
		Identity IdentityConfig
		Database DatabaseConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

// NewConfig loads the app configuration from defaults, an optional
// config/.env.<env> file and environment variables (prefixed with the env name).
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Darasa")
	v.SetDefault("secretKey", "w#t5$8_2m%ya)a(+iu3=pe^k!sbx0kt-0q&0u7yb1!*7(x@3dz")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("serverAddr", ":8000")
	v.SetDefault("sessionCookieName", "darasa_session")
	v.SetDefault("accessTokenDelta", time.Hour)
	v.SetDefault("refreshDelta", 7*24*time.Hour)
	v.SetDefault("identityBaseURL", "http://localhost:9999")
	v.SetDefault("identityTimeout", 10*time.Second)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "darasa")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	testMode := false
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            v.GetBool("debug"),
		TestMode:         testMode || v.GetBool("testMode"),
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host: v.GetString("serverHost"),
			Addr: v.GetString("serverAddr"),
		},
		Session: SessionConfig{
			CookieName:       v.GetString("sessionCookieName"),
			AccessTokenDelta: v.GetDuration("accessTokenDelta"),
			RefreshDelta:     v.GetDuration("refreshDelta"),
		},
		Identity: IdentityConfig{
			BaseURL: v.GetString("identityBaseURL"),
			APIKey:  v.GetString("identityApiKey"),
			Timeout: v.GetDuration("identityTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
	}
}
