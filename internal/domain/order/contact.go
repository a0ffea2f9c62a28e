// internal/domain/order/contact.go
package order

import (
	"net/mail"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

const defaultPhoneRegion = "RU"

// Contact is the customer contact data captured on an order
type Contact struct {
	FullName string
	Phone    string
	Email    string
}

// ContactUpdate carries the fields an edit may change; nil means unchanged
type ContactUpdate struct {
	FullName *string
	Phone    *string
	Email    *string
}

// Normalize trims, validates and canonicalises the contact
func (c Contact) Normalize() (Contact, error) {
	name := strings.TrimSpace(c.FullName)
	if name == "" {
		return c, apperr.New(apperr.KindInvalidInput, "order", "full_name must not be blank")
	}
	if len([]rune(name)) > 255 {
		return c, apperr.New(apperr.KindInvalidInput, "order", "full_name must be at most 255 characters")
	}

	phone, err := NormalizePhone(c.Phone)
	if err != nil {
		return c, err
	}

	email := strings.TrimSpace(c.Email)
	if email != "" {
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return c, apperr.New(apperr.KindInvalidInput, "order", "email is not a valid address")
		}
	}

	return Contact{FullName: name, Phone: phone, Email: email}, nil
}

// NormalizePhone parses a number written the way a shopper types it and
// returns it in E.164. Numbers without a country code are read as Russian.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(raw), defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", invalidPhone()
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func invalidPhone() error {
	return apperr.New(apperr.KindInvalidInput, "order", "phone must be a valid number, e.g. +79991234567")
}
