// Package proposal holds the static per-proposal rules: which template to
// fill, which form fields exist and how prices are derived.
package proposal

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"proposal-generator/internal/placeholder"
	"proposal-generator/internal/pricing"
	"proposal-generator/internal/processor"
)

//go:embed proposals.yaml
var defaultProposals []byte

type TeamVariant string

const (
	TeamNone      TeamVariant = "none"
	TeamGeneral   TeamVariant = "general"
	TeamMarketing TeamVariant = "marketing"
)

type FieldKind string

const (
	KindText     FieldKind = "text"
	KindDate     FieldKind = "date"
	KindOptional FieldKind = "optional"
)

type Role struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

var teamRoles = map[TeamVariant][]Role{
	TeamNone: nil,
	TeamGeneral: {
		{"Project Manager", "<<P1>>"},
		{"Business Analyst", "<<B1>>"},
		{"UI/UX Members", "<<U1>>"},
		{"Backend Developers", "<<BD1>>"},
		{"Frontend Developers", "<<F1>>"},
		{"AI/ML Developers", "<<A1>>"},
		{"System Architect", "<<S1>>"},
		{"AWS Developer", "<<AD1>>"},
	},
	TeamMarketing: {
		{"Social Media Manager", "<<SMM1>>"},
		{"Content Writer", "<<CW1>>"},
		{"Graphic Designer", "<<GD1>>"},
		{"SEO Specialist", "<<SEO1>>"},
		{"PPC Specialist", "<<PPC1>>"},
		{"Account Manager", "<<AM1>>"},
	},
}

func (v TeamVariant) Roles() []Role {
	return teamRoles[v]
}

func (v TeamVariant) Valid() bool {
	_, ok := teamRoles[v]
	return ok
}

type PricingField struct {
	Label string `yaml:"label" json:"label"`
	Token string `yaml:"token" json:"token"`
}

type SpecialField struct {
	Name    string              `yaml:"name" json:"name"`
	Label   string              `yaml:"label" json:"label"`
	Bracket placeholder.Bracket `yaml:"bracket" json:"bracket"`
	Kind    FieldKind           `yaml:"kind" json:"kind"`
}

func (f SpecialField) Token() string {
	return f.Bracket.Wrap(f.Name)
}

type Config struct {
	Name        string             `yaml:"name" json:"name"`
	Template    string             `yaml:"template" json:"template"`
	Country     bool               `yaml:"country" json:"country"`
	Designation bool               `yaml:"designation" json:"designation"`
	Team        TeamVariant        `yaml:"team" json:"team"`
	Strategy    pricing.Strategy   `yaml:"strategy" json:"strategy"`
	Pricing     []PricingField     `yaml:"pricing" json:"pricing"`
	Special     []SpecialField     `yaml:"special" json:"special"`
	RowCleanup  *processor.RowRule `yaml:"row_cleanup" json:"row_cleanup,omitempty"`
}

type Registry struct {
	configs []Config
	byName  map[string]int
}

type registryFile struct {
	Proposals []Config `yaml:"proposals"`
}

// LoadRegistry parses and validates a proposals document.
func LoadRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse proposals: %w", err)
	}
	if len(file.Proposals) == 0 {
		return nil, fmt.Errorf("no proposals configured")
	}

	r := &Registry{byName: make(map[string]int, len(file.Proposals))}
	for i := range file.Proposals {
		cfg := file.Proposals[i]
		if cfg.Team == "" {
			cfg.Team = TeamNone
		}
		if cfg.Strategy == "" {
			cfg.Strategy = pricing.None
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[cfg.Name]; dup {
			return nil, fmt.Errorf("duplicate proposal %q", cfg.Name)
		}
		r.byName[cfg.Name] = len(r.configs)
		r.configs = append(r.configs, cfg)
	}
	return r, nil
}

func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read proposals file: %w", err)
	}
	return LoadRegistry(data)
}

// DefaultRegistry returns the built-in proposal set.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(defaultProposals)
}

func (c Config) validate() error {
	if c.Name == "" {
		return fmt.Errorf("proposal without a name")
	}
	if c.Template == "" {
		return fmt.Errorf("proposal %q: template is required", c.Name)
	}
	if !c.Team.Valid() {
		return fmt.Errorf("proposal %q: unknown team variant %q", c.Name, c.Team)
	}
	if !c.Strategy.Valid() {
		return fmt.Errorf("proposal %q: unknown pricing strategy %q", c.Name, c.Strategy)
	}
	for _, f := range c.Pricing {
		if f.Token == "" {
			return fmt.Errorf("proposal %q: pricing field %q has no token", c.Name, f.Label)
		}
	}
	for _, f := range c.Special {
		if f.Name == "" {
			return fmt.Errorf("proposal %q: special field without a name", c.Name)
		}
		if !f.Bracket.Valid() {
			return fmt.Errorf("proposal %q: field %q has unknown bracket %q", c.Name, f.Name, f.Bracket)
		}
		switch f.Kind {
		case KindText, KindDate, KindOptional:
		default:
			return fmt.Errorf("proposal %q: field %q has unknown kind %q", c.Name, f.Name, f.Kind)
		}
	}
	if c.RowCleanup != nil && c.RowCleanup.DefaultColumn < 0 {
		return fmt.Errorf("proposal %q: row cleanup column must not be negative", c.Name)
	}
	return nil
}

func (r *Registry) Get(name string) (Config, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Config{}, false
	}
	return r.configs[i], true
}

func (r *Registry) List() []Config {
	return append([]Config(nil), r.configs...)
}
