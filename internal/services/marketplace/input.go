package marketplace

import (
	"marketplace/internal/agents/moderation"
	"marketplace/internal/agents/pricing"
	"marketplace/pkg/errors"
)

// PriceInput is the wire form of a price request. Pointers distinguish an
// absent field from a zero value.
type PriceInput struct {
	Title       *string  `json:"title"`
	Category    *string  `json:"category"`
	Brand       *string  `json:"brand"`
	Condition   *string  `json:"condition"`
	AgeMonths   *float64 `json:"age_months"`
	AskingPrice *float64 `json:"asking_price"`
	Location    *string  `json:"location"`
}

// Request converts the input, failing on the first absent field.
// Present but malformed values are left for the agent to degrade on.
func (in PriceInput) Request() (pricing.Request, error) {
	texts := []struct {
		field string
		value *string
	}{
		{"title", in.Title},
		{"category", in.Category},
		{"brand", in.Brand},
		{"condition", in.Condition},
	}
	for _, t := range texts {
		if t.value == nil {
			return pricing.Request{}, errors.MissingField(t.field)
		}
	}
	if in.AgeMonths == nil {
		return pricing.Request{}, errors.MissingField("age_months")
	}
	if in.AskingPrice == nil {
		return pricing.Request{}, errors.MissingField("asking_price")
	}
	if in.Location == nil {
		return pricing.Request{}, errors.MissingField("location")
	}

	return pricing.Request{
		Title:       *in.Title,
		Category:    *in.Category,
		Brand:       *in.Brand,
		Condition:   *in.Condition,
		AgeMonths:   *in.AgeMonths,
		AskingPrice: *in.AskingPrice,
		Location:    *in.Location,
	}, nil
}

// ModerationInput is the wire form of a moderation request
type ModerationInput struct {
	Message *string `json:"message"`
	Context string  `json:"context,omitempty"`
}

// Request converts the input, failing when the message is absent
func (in ModerationInput) Request() (moderation.Request, error) {
	if in.Message == nil {
		return moderation.Request{}, errors.MissingField("message")
	}
	return moderation.Request{Message: *in.Message, Context: in.Context}, nil
}
