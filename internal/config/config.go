package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName  string
	HTTPAddr     string
	CRDBDSN      string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RabbitURL    string
	OTLPEndpoint string

	StripeSecretKey        string
	ProcessorCurrency      string
	ProcessorVersionNumber string
	ProcessorDeveloperID   string

	ManualApproval           bool
	BookingsApprovalRequired bool
	AnonymousBookings        bool
	RegistrationDisabled     bool
	BookingFeedback          string
	BookingFeedbackFree      string
	EmailCustomer            bool

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	IdempotencyTTL time.Duration
	PendingTTL     time.Duration
	ReaperInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		ServiceName:  getenv("SERVICE_NAME", "securesubmit-bookings"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		CRDBDSN:      os.Getenv("CRDB_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      getenv("MONGO_DB", "ssb"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),

		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		ProcessorCurrency:      getenv("PROCESSOR_CURRENCY", "usd"),
		ProcessorVersionNumber: getenv("PROCESSOR_VERSION_NUMBER", "1740"),
		ProcessorDeveloperID:   getenv("PROCESSOR_DEVELOPER_ID", "002914"),

		ManualApproval:           getbool("GATEWAY_MANUAL_APPROVAL", false),
		BookingsApprovalRequired: getbool("BOOKINGS_APPROVAL_REQUIRED", true),
		AnonymousBookings:        getbool("BOOKINGS_ANONYMOUS", true),
		RegistrationDisabled:     getbool("BOOKINGS_REGISTRATION_DISABLED", false),
		BookingFeedback:          getenv("GATEWAY_BOOKING_FEEDBACK", "Booking successful."),
		BookingFeedbackFree:      getenv("GATEWAY_BOOKING_FEEDBACK_FREE", "Booking successful. You have not been charged for this booking."),
		EmailCustomer:            getbool("GATEWAY_EMAIL_CUSTOMER", false),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getint("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		MailFrom:     os.Getenv("MAIL_FROM"),

		IdempotencyTTL: getduration("IDEMPOTENCY_TTL", 24*time.Hour),
		PendingTTL:     getduration("PENDING_TTL", 30*time.Minute),
		ReaperInterval: getduration("REAPER_INTERVAL", 5*time.Minute),
	}, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getint(k string, def int) int {
	v, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return v
}

func getduration(k string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(k))
	if d == 0 {
		return def
	}
	return d
}
