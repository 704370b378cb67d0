package payment

import (
	"strconv"

	"github.com/robertarktes/securesubmit-bookings/internal/config"
)

const GatewayName = "securesubmit"

type Settings struct {
	// ManualApproval keeps paid bookings pending until a human approves them.
	// It only applies when BookingsApprovalRequired is also set.
	ManualApproval           bool
	BookingsApprovalRequired bool
	AnonymousBookingsAllowed bool
	RegistrationDisabled     bool

	Currency            string
	BookingFeedback     string
	BookingFeedbackFree string
	EmailCustomer       bool
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ManualApproval:           cfg.ManualApproval,
		BookingsApprovalRequired: cfg.BookingsApprovalRequired,
		AnonymousBookingsAllowed: cfg.AnonymousBookings,
		RegistrationDisabled:     cfg.RegistrationDisabled,
		Currency:                 cfg.ProcessorCurrency,
		BookingFeedback:          cfg.BookingFeedback,
		BookingFeedbackFree:      cfg.BookingFeedbackFree,
		EmailCustomer:            cfg.EmailCustomer,
	}
}

func (s Settings) holdForManualApproval() bool {
	return s.ManualApproval && s.BookingsApprovalRequired
}

// Overlay applies stored option values on top of s. Unknown options and
// unparseable flags are ignored.
func (s Settings) Overlay(options map[string]string) Settings {
	flag := func(key string, dst *bool) {
		if v, ok := options[key]; ok {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}
	text := func(key string, dst *string) {
		if v, ok := options[key]; ok && v != "" {
			*dst = v
		}
	}

	flag("manual_approval", &s.ManualApproval)
	flag("bookings_approval", &s.BookingsApprovalRequired)
	flag("bookings_anonymous", &s.AnonymousBookingsAllowed)
	flag("bookings_registration_disabled", &s.RegistrationDisabled)
	flag("email_customer", &s.EmailCustomer)
	text("currency", &s.Currency)
	text("booking_feedback", &s.BookingFeedback)
	text("booking_feedback_free", &s.BookingFeedbackFree)
	return s
}
