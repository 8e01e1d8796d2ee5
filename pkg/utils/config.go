package utils

import (
	"os"
	"strconv"
	"time"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
	InviteCode  string
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("MODPANEL_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("MODPANEL_JWT_ISSUER")
	if issuer == "" {
		issuer = "modpanel"
	}

	hours := 24
	if ttl := os.Getenv("MODPANEL_JWT_TTL_HOURS"); ttl != "" {
		if n, err := strconv.Atoi(ttl); err == nil && n > 0 {
			hours = n
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: time.Duration(hours) * time.Hour,
		InviteCode:  os.Getenv("MODPANEL_INVITE_CODE"),
	}
}

// RepositoryConfig points the panel at the content repository
// that actually owns the comments.
type RepositoryConfig struct {
	Endpoint string
	Token    string
	SiteName string
	Lang     string
}

func LoadRepositoryConfig() RepositoryConfig {
	endpoint := os.Getenv("MODPANEL_REPO_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9090/graphql"
	}

	lang := os.Getenv("MODPANEL_REPO_LANG")
	if lang == "" {
		lang = "en"
	}

	return RepositoryConfig{
		Endpoint: endpoint,
		Token:    os.Getenv("MODPANEL_REPO_TOKEN"),
		SiteName: os.Getenv("MODPANEL_SITE_NAME"),
		Lang:     lang,
	}
}

type ServerConfig struct {
	HTTPAddr string
	TCPAddr  string
	Debug    bool
}

func LoadServerConfig() ServerConfig {
	httpAddr := os.Getenv("MODPANEL_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	tcpAddr := os.Getenv("MODPANEL_TCP_ADDR")
	if tcpAddr == "" {
		tcpAddr = ":7070"
	}

	debug := false
	if v := os.Getenv("MODPANEL_DEBUG"); v == "1" || v == "true" {
		debug = true
	}

	return ServerConfig{
		HTTPAddr: httpAddr,
		TCPAddr:  tcpAddr,
		Debug:    debug,
	}
}
