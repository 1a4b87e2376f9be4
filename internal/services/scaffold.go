package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/fumiama/go-docx"
	"go.uber.org/zap"

	"proposal-generator/internal/pricing"
	"proposal-generator/internal/processor"
	"proposal-generator/internal/proposal"
)

// Scaffold writes a plain starter template for proposalType. It carries every
// token a generation of that type fills, laid out the way the stored
// templates are: client details, team and pricing tables, then the signature.
func (s *TemplateService) Scaffold(proposalType string, w io.Writer) error {
	cfg, err := s.Config(proposalType)
	if err != nil {
		return err
	}

	doc, err := scaffoldDocument(cfg)
	if err != nil {
		return err
	}
	proc, err := processor.FromDocument(doc, s.logger)
	if err != nil {
		return fmt.Errorf("failed to build template: %w", err)
	}
	defer proc.Cleanup()

	tokens, err := proc.ExtractPlaceholders()
	if err != nil {
		return err
	}
	if _, err := proc.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	s.logger.Info("template scaffolded",
		zap.String("proposal_type", cfg.Name),
		zap.Int("tokens", len(tokens)),
	)
	return nil
}

func scaffoldDocument(cfg proposal.Config) (*docx.Docx, error) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().Justification("center").AddText(cfg.Name).Bold().Size("32")
	doc.AddParagraph().AddText("Date: " + TokenDate)

	field := func(label, token string) {
		doc.AddParagraph().AddText(label + ": " + token)
	}
	field("Client", TokenClientName)
	field("Email", TokenClientEmail)
	field("Phone", TokenClientNumber)
	if cfg.Country {
		field("Country", TokenCountry)
	}
	if cfg.Designation {
		field("Designation", TokenDesignation)
	}
	for _, f := range cfg.Special {
		field(f.Label, f.Token())
	}

	if roles := cfg.Team.Roles(); len(roles) > 0 {
		rows := make([][2]string, 0, len(roles))
		for _, role := range roles {
			rows = append(rows, [2]string{role.Label, role.Token})
		}
		addScaffoldTable(doc, "Team", rows)
	}

	rows, err := pricingRows(cfg)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		addScaffoldTable(doc, "Pricing", rows)
	}

	doc.AddParagraph().AddText(TokenSignature)
	return doc, nil
}

// pricingRows lists the per-item tokens followed by every amount the
// strategy derives. INR is used since it publishes the regional tax line.
func pricingRows(cfg proposal.Config) ([][2]string, error) {
	b, err := pricing.Calculate(cfg.Strategy, pricing.Input{
		Currency: pricing.INR,
		Items:    make([]float64, len(cfg.Pricing)),
	})
	if err != nil {
		return nil, err
	}

	rows := make([][2]string, 0, len(cfg.Pricing)+len(b.Lines)+1)
	for _, f := range cfg.Pricing {
		rows = append(rows, [2]string{f.Label, pricing.TokenCurrency + " " + f.Token})
	}
	for _, line := range b.Lines {
		rows = append(rows, [2]string{tokenLabel(line.Token), pricing.TokenCurrency + " " + line.Token})
	}
	if _, ok := b.Placeholders().Get(pricing.TokenTaxPercentage); ok {
		rows = append(rows, [2]string{tokenLabel(pricing.TokenTaxPercentage), pricing.TokenTaxPercentage + "%"})
	}
	return rows, nil
}

func addScaffoldTable(doc *docx.Docx, heading string, rows [][2]string) {
	doc.AddParagraph().AddText(heading).Bold()
	table := doc.AddTable(len(rows), 2, 0, nil)
	for i, row := range rows {
		table.TableRows[i].TableCells[0].AddParagraph().AddText(row[0])
		table.TableRows[i].TableCells[1].AddParagraph().AddText(row[1])
	}
}

func tokenLabel(token string) string {
	return strings.TrimSuffix(strings.TrimPrefix(token, "<<"), ">>")
}
