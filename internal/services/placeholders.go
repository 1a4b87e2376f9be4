package services

import (
	"strconv"
	"strings"
	"time"

	"proposal-generator/internal/placeholder"
	"proposal-generator/internal/pricing"
	"proposal-generator/internal/proposal"
)

const (
	TokenClientName    = "<<Client Name>>"
	TokenClientEmail   = "<<Client Email>>"
	TokenClientNumber  = "<<Client Number>>"
	TokenDate          = "<<Date>>"
	TokenCountry       = "<<Country>>"
	TokenDesignation   = "<<Designation>>"
	TokenSignature     = "<<Signature>>"
	placeholderDateFmt = "02-01-2006"
)

// BuildPlaceholders computes the full token map for req before any document
// is touched. Pricing runs first so derived amounts are part of the map.
// The signature token is left out when an image will replace it.
func BuildPlaceholders(cfg proposal.Config, req GenerationRequest) (*placeholder.Map, pricing.Breakdown, error) {
	items := make([]float64, 0, len(cfg.Pricing))
	for _, f := range cfg.Pricing {
		items = append(items, req.Prices[f.Token])
	}
	breakdown, err := pricing.Calculate(cfg.Strategy, pricing.Input{
		Currency:   req.currency(),
		Items:      items,
		TaxPercent: req.TaxPercent,
	})
	if err != nil {
		return nil, pricing.Breakdown{}, invalid("prices", "%v", err)
	}

	m := placeholder.NewMap()
	m.Set(TokenClientName, strings.TrimSpace(req.Client.Name))
	m.Set(TokenClientEmail, strings.TrimSpace(req.Client.Email))
	m.Set(TokenClientNumber, strings.TrimSpace(req.Client.Number))
	m.Set(TokenDate, req.Date.Format(placeholderDateFmt))
	if cfg.Country {
		m.Set(TokenCountry, strings.TrimSpace(req.Client.Country))
	}
	if cfg.Designation {
		m.Set(TokenDesignation, strings.TrimSpace(req.Client.Designation))
	}

	for _, f := range cfg.Pricing {
		m.Set(f.Token, pricing.FormatLineItem(req.Prices[f.Token]))
	}

	for _, role := range cfg.Team.Roles() {
		m.Set(role.Token, strconv.Itoa(req.Team[role.Token]))
	}

	for _, f := range cfg.Special {
		m.Set(f.Token(), specialValue(f, req.Special[f.Name]))
	}

	m.Merge(breakdown.Placeholders())

	if len(req.Signature) == 0 {
		m.Set(TokenSignature, "")
	}
	return m, breakdown, nil
}

func specialValue(f proposal.SpecialField, raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if f.Kind == proposal.KindDate {
		if t, err := ParseDate(value); err == nil {
			return t.Format(placeholderDateFmt)
		}
	}
	return value
}

// BuildFilename names the generated document
// <ProposalType>_<ClientName>_<dd Mon yyyy>_<shortID>.docx.
func BuildFilename(proposalType, clientName string, date time.Time, shortID string) string {
	name := strings.Join([]string{
		sanitizeFilename(proposalType),
		sanitizeFilename(clientName),
		date.Format("02 Jan 2006"),
		shortID,
	}, "_")
	return name + ".docx"
}

var filenameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	"\n", " ", "\r", " ", "\t", " ",
)

func sanitizeFilename(s string) string {
	return strings.TrimSpace(filenameReplacer.Replace(s))
}
