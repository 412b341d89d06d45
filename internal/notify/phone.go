package notify

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/eavinstitute/admissions/internal/models"
)

// PhoneNormalizer converts user-entered phone numbers to the international
// digits-only form used by sms: and wa.me deep links. The shape check is
// for Kenyan mobile numbers (07xx/01xx locally, 2547xx/2541xx
// internationally); invalid input is a hard ValidationError, never a
// silently broken link.
type PhoneNormalizer struct {
	countryCode string
	shape       *regexp.Regexp
}

var nonDigits = regexp.MustCompile(`\D`)

func NewPhoneNormalizer(countryCode string) *PhoneNormalizer {
	return &PhoneNormalizer{
		countryCode: countryCode,
		shape:       regexp.MustCompile(`^` + countryCode + `[17]\d{8}$`),
	}
}

func (p *PhoneNormalizer) Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", models.NewValidationError("phone", "phone number is required")
	}

	// A leading + only marks the number as already international; it is
	// dropped along with every other non-digit.
	s = nonDigits.ReplaceAllString(s, "")

	if strings.HasPrefix(s, "0") && len(s) == 10 {
		s = p.countryCode + s[1:]
	}

	if !p.shape.MatchString(s) {
		return "", models.NewValidationError("phone",
			fmt.Sprintf("%q does not normalize to a valid %s mobile number", raw, p.countryCode))
	}
	return s, nil
}

// TelLink returns a tel: URI for the raw number.
func (p *PhoneNormalizer) TelLink(raw string) (string, error) {
	intl, err := p.Normalize(raw)
	if err != nil {
		return "", err
	}
	return "tel:+" + intl, nil
}

// SMSLink returns an sms: URI with the message URL-encoded into the body
// parameter.
func (p *PhoneNormalizer) SMSLink(raw, body string) (string, error) {
	intl, err := p.Normalize(raw)
	if err != nil {
		return "", err
	}
	return "sms:+" + intl + "?body=" + url.QueryEscape(body), nil
}

// WhatsAppLink returns a wa.me URI; wa.me takes the international number
// without the plus.
func (p *PhoneNormalizer) WhatsAppLink(raw, text string) (string, error) {
	intl, err := p.Normalize(raw)
	if err != nil {
		return "", err
	}
	return "https://wa.me/" + intl + "?text=" + url.QueryEscape(text), nil
}
