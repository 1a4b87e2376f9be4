// Package pricing computes the derived amounts of a proposal (maintenance,
// totals and tax) and formats them for the placeholder map.
package pricing

import (
	"fmt"
	"math"
	"strings"
)

type Currency string

const (
	INR Currency = "INR"
	USD Currency = "USD"
)

var currencySymbols = map[Currency]string{
	INR: "₹",
	USD: "$",
}

func (c Currency) Symbol() string {
	return currencySymbols[c]
}

func (c Currency) Valid() bool {
	_, ok := currencySymbols[c]
	return ok
}

// RegionalTax reports whether the 18% regional tax is charged in c.
func (c Currency) RegionalTax() bool {
	return c == INR
}

func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("unsupported currency %q", s)
	}
	return c, nil
}

type Strategy string

const (
	None                     Strategy = "none"
	MaintenanceOnServices    Strategy = "maintenance_on_services"
	TotalIncludesMaintenance Strategy = "total_includes_maintenance"
	MarketingTax             Strategy = "marketing_tax"
	FlatFee                  Strategy = "flat_fee"
)

const (
	MaintenanceRate = 0.10
	RegionalTaxRate = 18.0
)

// FlatFees is the consultation fee charged per currency by FlatFee.
var FlatFees = map[Currency]float64{
	INR: 25000,
	USD: 300,
}

const (
	TokenCurrency        = "<<Currency>>"
	TokenServicesTotal   = "<<Services Total>>"
	TokenMaintenance     = "<<Maintenance>>"
	TokenTotal           = "<<Total>>"
	TokenTax             = "<<Tax>>"
	TokenTaxPercentage   = "<<Tax Percentage>>"
	TokenFinalTotal      = "<<Final Total>>"
	TokenConsultationFee = "<<Consultation Fee>>"
)

// Limits accepted by Calculate. Every derived total stays far below the
// range FormatAmount renders exactly.
const (
	MaxAmount     = 1e12
	MaxTaxPercent = 100.0
)

type Input struct {
	Currency   Currency
	Items      []float64
	TaxPercent float64
}

// Line is one derived amount published under Token.
type Line struct {
	Token  string
	Amount float64
}

type Breakdown struct {
	Strategy    Strategy
	Currency    Currency
	Services    float64
	Maintenance float64
	Total       float64
	TaxPercent  float64
	Tax         float64
	Final       float64
	Lines       []Line
}

type calculator func(in Input) Breakdown

var strategies = map[Strategy]calculator{
	None:                     calculateNone,
	MaintenanceOnServices:    calculateMaintenanceOnServices,
	TotalIncludesMaintenance: calculateTotalIncludesMaintenance,
	MarketingTax:             calculateMarketingTax,
	FlatFee:                  calculateFlatFee,
}

func (s Strategy) Valid() bool {
	_, ok := strategies[s]
	return ok
}

// Calculate runs the calculator registered for s.
func Calculate(s Strategy, in Input) (Breakdown, error) {
	calc, ok := strategies[s]
	if !ok {
		return Breakdown{}, fmt.Errorf("unknown pricing strategy %q", s)
	}
	if !in.Currency.Valid() {
		return Breakdown{}, fmt.Errorf("unsupported currency %q", in.Currency)
	}
	for _, v := range in.Items {
		if v < 0 || v > MaxAmount || math.IsNaN(v) {
			return Breakdown{}, fmt.Errorf("invalid amount %v", v)
		}
	}
	if in.TaxPercent < 0 || in.TaxPercent > MaxTaxPercent || math.IsNaN(in.TaxPercent) {
		return Breakdown{}, fmt.Errorf("invalid tax percentage %v", in.TaxPercent)
	}

	b := calc(in)
	b.Strategy = s
	b.Currency = in.Currency
	return b, nil
}

func calculateNone(in Input) Breakdown {
	return Breakdown{Services: round2(sum(in.Items))}
}

func calculateMaintenanceOnServices(in Input) Breakdown {
	services := sum(in.Items)
	maintenance := services * MaintenanceRate
	return withRegionalTax(in.Currency, services, maintenance, services+maintenance)
}

func calculateTotalIncludesMaintenance(in Input) Breakdown {
	services := sum(in.Items)
	total := services / (1 - MaintenanceRate)
	return withRegionalTax(in.Currency, services, total-services, total)
}

func withRegionalTax(c Currency, services, maintenance, total float64) Breakdown {
	b := Breakdown{
		Services:    round2(services),
		Maintenance: round2(maintenance),
		Total:       round2(total),
	}
	if c.RegionalTax() {
		b.TaxPercent = RegionalTaxRate
		b.Tax = round2(b.Total * RegionalTaxRate / 100)
	}
	b.Final = round2(b.Total + b.Tax)
	b.Lines = []Line{
		{TokenServicesTotal, b.Services},
		{TokenMaintenance, b.Maintenance},
		{TokenTotal, b.Total},
		{TokenTax, b.Tax},
		{TokenFinalTotal, b.Final},
	}
	return b
}

func calculateMarketingTax(in Input) Breakdown {
	b := Breakdown{
		Services:   round2(sum(in.Items)),
		TaxPercent: in.TaxPercent,
	}
	b.Total = b.Services
	b.Tax = round2(b.Total * in.TaxPercent / 100)
	b.Final = round2(b.Total + b.Tax)
	b.Lines = []Line{
		{TokenTotal, b.Total},
		{TokenTax, b.Tax},
		{TokenFinalTotal, b.Final},
	}
	return b
}

func calculateFlatFee(in Input) Breakdown {
	fee := FlatFees[in.Currency]
	return Breakdown{
		Total: fee,
		Final: fee,
		Lines: []Line{{TokenConsultationFee, fee}},
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
