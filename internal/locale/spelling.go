package locale

import "strings"

// Substitution replaces one spelling with another.
type Substitution struct {
	From string
	To   string
}

// Speller applies an ordered list of substitutions to static copy.
type Speller struct {
	subs []Substitution
}

// NewSpeller builds a Speller. Substitutions run in the given order.
func NewSpeller(subs ...Substitution) Speller {
	return Speller{subs: append([]Substitution(nil), subs...)}
}

// DefaultSpeller converts the British spellings used across the site copy.
func DefaultSpeller() Speller {
	return NewSpeller(
		Substitution{"personalisation", "personalization"},
		Substitution{"Personalisation", "Personalization"},
		Substitution{"personalised", "personalized"},
		Substitution{"Personalised", "Personalized"},
		Substitution{"personalise", "personalize"},
		Substitution{"Personalise", "Personalize"},
		Substitution{"optimisation", "optimization"},
		Substitution{"Optimisation", "Optimization"},
		Substitution{"optimise", "optimize"},
		Substitution{"Optimise", "Optimize"},
		Substitution{"customisation", "customization"},
		Substitution{"Customisation", "Customization"},
		Substitution{"customise", "customize"},
		Substitution{"Customise", "Customize"},
		Substitution{"utilise", "utilize"},
		Substitution{"Utilise", "Utilize"},
		Substitution{"behavioural", "behavioral"},
		Substitution{"Behavioural", "Behavioral"},
		Substitution{"organisation", "organization"},
		Substitution{"Organisation", "Organization"},
		Substitution{"realise", "realize"},
		Substitution{"Realise", "Realize"},
		Substitution{"colour", "color"},
		Substitution{"Colour", "Color"},
		Substitution{"behaviour", "behavior"},
		Substitution{"Behaviour", "Behavior"},
		Substitution{"centre", "center"},
		Substitution{"Centre", "Center"},
	)
}

// Convert rewrites text using every substitution in order.
func (s Speller) Convert(text string) string {
	for _, sub := range s.subs {
		if sub.From == "" {
			continue
		}
		text = strings.ReplaceAll(text, sub.From, sub.To)
	}
	return text
}

// For returns a converter for the region; non-US regions keep British copy.
func (s Speller) For(r Region) func(string) string {
	if !r.AmericanSpelling() {
		return func(text string) string { return text }
	}
	return s.Convert
}
