package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env   string
	Port  int
	DBURL string

	// banner uploads
	UploadDir     string
	MaxUploadSize int64

	// confirmation mail
	MailProvider    string // "ses" or "log"
	MailFrom        string
	MailFromName    string
	SESRegion       string
	SESAccessKeyID  string
	SESSecretKey    string

	// redis (rate limiter); empty addr disables the limiter
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// tracing; empty endpoint disables the exporter
	OTLPEndpoint string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")

	// .env is a dev convenience only; production relies on real env vars.
	if env != "production" {
		_ = godotenv.Load()
	}

	return Config{
		Env:   env,
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		UploadDir:     getEnv("UPLOAD_DIR", "public/uploads"),
		MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),

		MailProvider:   getEnv("MAIL_PROVIDER", "log"),
		MailFrom:       getEnv("MAIL_FROM", "events@example.com"),
		MailFromName:   getEnv("MAIL_FROM_NAME", "Eventlite"),
		SESRegion:      getEnv("SES_REGION", "us-east-1"),
		SESAccessKeyID: getEnv("SES_ACCESS_KEY_ID", ""),
		SESSecretKey:   getEnv("SES_SECRET_ACCESS_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "eventlite")
	pass := getEnv("DB_PASSWORD", "eventlite")
	name := getEnv("DB_NAME", "eventlite")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
