package payment

import "github.com/robertarktes/securesubmit-bookings/internal/domain"

// TokenHolder carries the single-use token produced by the client-side
// tokenizer for the lifetime of one request.
type TokenHolder struct {
	token string
	used  bool
}

func NewTokenHolder(token string) *TokenHolder {
	return &TokenHolder{token: token}
}

func (h *TokenHolder) Present() bool {
	return h != nil && h.token != "" && !h.used
}

// Take hands the token out once and forgets it.
func (h *TokenHolder) Take() (string, error) {
	if h == nil || (h.token == "" && !h.used) {
		return "", domain.ErrMissingToken
	}
	if h.used {
		return "", domain.ErrTokenConsumed
	}
	tok := h.token
	h.token = ""
	h.used = true
	return tok, nil
}

func (h *TokenHolder) String() string {
	return "[redacted]"
}

func (h *TokenHolder) GoString() string {
	return "payment.TokenHolder{[redacted]}"
}
