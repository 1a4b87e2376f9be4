package services

import (
	"time"

	"proposal-generator/internal/pricing"
)

type ClientForm struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"omitempty,email"`
	Number      string `json:"number"`
	Country     string `json:"country"`
	Designation string `json:"designation"`
}

// GenerationForm is the wire shape of a generation request, shared by the
// HTTP API and request files given to the command line tool.
type GenerationForm struct {
	Client     ClientForm         `json:"client"`
	Date       string             `json:"date"`
	Currency   string             `json:"currency"`
	Prices     map[string]float64 `json:"prices"`
	TaxPercent float64            `json:"tax_percent" binding:"gte=0"`
	Team       map[string]int     `json:"team"`
	Special    map[string]string  `json:"special"`
}

// ToRequest parses the textual fields. An empty date means today.
func (f GenerationForm) ToRequest(proposalType string, signature []byte, now time.Time) (GenerationRequest, error) {
	req := GenerationRequest{
		ProposalType: proposalType,
		Client: Client{
			Name:        f.Client.Name,
			Email:       f.Client.Email,
			Number:      f.Client.Number,
			Country:     f.Client.Country,
			Designation: f.Client.Designation,
		},
		Date:       now,
		Prices:     f.Prices,
		TaxPercent: f.TaxPercent,
		Team:       f.Team,
		Special:    f.Special,
		Signature:  signature,
	}

	if f.Currency != "" {
		currency, err := pricing.ParseCurrency(f.Currency)
		if err != nil {
			return req, invalid("currency", "%v", err)
		}
		req.Currency = currency
	}

	if f.Date != "" {
		date, err := ParseDate(f.Date)
		if err != nil {
			return req, invalid("date", "date must be YYYY-MM-DD or DD-MM-YYYY")
		}
		req.Date = date
	}
	return req, nil
}
