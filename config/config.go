package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/raahiforwork/raahi-api/logging"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string
	MailProvider string
}

// New sets up all config related services
func New() *Config {

	// .env is optional, real deployments set the environment directly
	_ = godotenv.Load()

	//setup zap logger and replace default logger
	logger := logging.New(os.Getenv("GO_ENV"))
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger.Desugar())

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587
	}

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
		Env:          os.Getenv("GO_ENV"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     smtpPort,
		SMTPUsername: os.Getenv("EMAIL_USER"),
		SMTPPassword: os.Getenv("EMAIL_APP_PASSWORD"),
		MailFrom:     os.Getenv("EMAIL_USER"),
		MailFromName: os.Getenv("MAIL_FROM_NAME"),
		MailProvider: os.Getenv("MAIL_PROVIDER"),
	}

}

// IsProduction reports whether the service runs in production mode. Error
// responses omit underlying error detail when this is true.
func IsProduction() bool {
	return os.Getenv("GO_ENV") == "production"
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	if IsProduction() {
		w.Write([]byte(fmt.Sprintf(`{"response": "%s"}`, message)))
		return
	}
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
