// Package showcase serves the solution challenge cards shown on the intro page.
package showcase

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/showcase-api/internal/locale"
)

//go:embed challenges.yaml
var defaultContent []byte

// ErrChallengeNotFound is returned for an unknown challenge id.
var ErrChallengeNotFound = errors.New("showcase: challenge not found")

// Benefit is one card inside a challenge.
type Benefit struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Challenge is a solution area a visitor can pick.
type Challenge struct {
	ID            string    `yaml:"id" json:"id"`
	Title         string    `yaml:"title" json:"title"`
	Description   string    `yaml:"description" json:"description"`
	Subtext       string    `yaml:"subtext" json:"subtext"`
	Features      []Benefit `yaml:"features" json:"features"`
	Integration   string    `yaml:"integration" json:"integration,omitempty"`
	Compatibility string    `yaml:"compatibility" json:"compatibility,omitempty"`
}

type content struct {
	Challenges []Challenge `yaml:"challenges"`
}

// Service returns challenge content localized per region.
type Service struct {
	challenges []Challenge
	speller    locale.Speller
}

// NewService parses the embedded content.
func NewService(speller locale.Speller) (*Service, error) {
	var c content
	if err := yaml.Unmarshal(defaultContent, &c); err != nil {
		return nil, fmt.Errorf("showcase: decode: %w", err)
	}
	if len(c.Challenges) == 0 {
		return nil, errors.New("showcase: no challenges defined")
	}
	return &Service{challenges: c.Challenges, speller: speller}, nil
}

// IDs lists the known challenge ids in display order.
func (s *Service) IDs() []string {
	out := make([]string, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, c.ID)
	}
	return out
}

// Has reports whether id names a challenge.
func (s *Service) Has(id string) bool {
	for _, c := range s.challenges {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Challenges returns every challenge localized for the region.
func (s *Service) Challenges(region locale.Region) []Challenge {
	spell := s.speller.For(region)
	out := make([]Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, localize(c, spell))
	}
	return out
}

// Challenge returns one challenge localized for the region.
func (s *Service) Challenge(region locale.Region, id string) (Challenge, error) {
	for _, c := range s.challenges {
		if c.ID == id {
			return localize(c, s.speller.For(region)), nil
		}
	}
	return Challenge{}, fmt.Errorf("%w: %q", ErrChallengeNotFound, id)
}

func localize(c Challenge, spell func(string) string) Challenge {
	out := c
	out.Title = spell(c.Title)
	out.Description = spell(c.Description)
	out.Subtext = spell(c.Subtext)
	out.Integration = spell(c.Integration)
	out.Compatibility = spell(c.Compatibility)
	out.Features = make([]Benefit, len(c.Features))
	for i, f := range c.Features {
		out.Features[i] = Benefit{Title: spell(f.Title), Description: spell(f.Description)}
	}
	return out
}
