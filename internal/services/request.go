package services

import (
	"maps"
	"math"
	"slices"
	"strings"
	"time"

	"proposal-generator/internal/pricing"
	"proposal-generator/internal/proposal"
)

type Client struct {
	Name        string
	Email       string
	Number      string
	Country     string
	Designation string
}

// GenerationRequest carries everything one generation needs. It is passed
// by value and the service never writes to it.
type GenerationRequest struct {
	ProposalType string
	Client       Client
	Date         time.Time
	Currency     pricing.Currency
	Prices       map[string]float64 // by pricing token
	TaxPercent   float64
	Team         map[string]int    // by role token
	Special      map[string]string // by special field name
	Signature    []byte
}

const (
	indiaCountry       = "india"
	indiaPhonePrefix   = "+91"
	defaultPhonePrefix = "+1"
)

// PhonePrefix is the prefix a client number must carry for country.
// Empty means the number is not checked.
func PhonePrefix(country string) string {
	c := strings.ToLower(strings.TrimSpace(country))
	switch c {
	case "":
		return ""
	case indiaCountry:
		return indiaPhonePrefix
	default:
		return defaultPhonePrefix
	}
}

func (r GenerationRequest) currency() pricing.Currency {
	if r.Currency == "" {
		return pricing.INR
	}
	return r.Currency
}

func (r GenerationRequest) Validate(cfg proposal.Config) error {
	if strings.TrimSpace(r.Client.Name) == "" {
		return invalid("client.name", "client name is required")
	}

	number := strings.TrimSpace(r.Client.Number)
	if prefix := PhonePrefix(r.Client.Country); prefix != "" && number != "" && !strings.HasPrefix(number, prefix) {
		return invalid("client.number", "phone number for %s must start with %s", strings.TrimSpace(r.Client.Country), prefix)
	}

	if !r.currency().Valid() {
		return invalid("currency", "unsupported currency %q", r.Currency)
	}

	known := make(map[string]bool, len(cfg.Pricing))
	for _, f := range cfg.Pricing {
		known[f.Token] = true
	}
	for _, token := range slices.Sorted(maps.Keys(r.Prices)) {
		amount := r.Prices[token]
		if !known[token] {
			return invalid("prices", "unknown pricing field %s", token)
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return invalid("prices", "%s must be a non-negative amount", token)
		}
		if amount > pricing.MaxAmount {
			return invalid("prices", "%s must not exceed %s", token, pricing.FormatAmount(pricing.MaxAmount))
		}
	}

	if r.TaxPercent < 0 || math.IsNaN(r.TaxPercent) {
		return invalid("tax_percent", "tax percentage must not be negative")
	}
	if r.TaxPercent > pricing.MaxTaxPercent {
		return invalid("tax_percent", "tax percentage must not exceed %s", pricing.FormatPercent(pricing.MaxTaxPercent))
	}

	roles := make(map[string]bool)
	for _, role := range cfg.Team.Roles() {
		roles[role.Token] = true
	}
	for _, token := range slices.Sorted(maps.Keys(r.Team)) {
		count := r.Team[token]
		if !roles[token] {
			return invalid("team", "unknown team role %s", token)
		}
		if count < 0 {
			return invalid("team", "%s must not be negative", token)
		}
	}

	fields := make(map[string]proposal.SpecialField, len(cfg.Special))
	for _, f := range cfg.Special {
		fields[f.Name] = f
	}
	for _, name := range slices.Sorted(maps.Keys(r.Special)) {
		value := r.Special[name]
		f, ok := fields[name]
		if !ok {
			return invalid("special", "unknown field %s", name)
		}
		if f.Kind == proposal.KindDate && strings.TrimSpace(value) != "" {
			if _, err := ParseDate(value); err != nil {
				return invalid("special", "%s must be a date (YYYY-MM-DD or DD-MM-YYYY)", name)
			}
		}
	}
	return nil
}

var dateLayouts = []string{"2006-01-02", "02-01-2006"}

// ParseDate accepts YYYY-MM-DD and DD-MM-YYYY.
func ParseDate(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(value))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
