package compose

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"
)

// Mode selects how email bodies are produced.
type Mode string

const (
	ModeLLM      Mode = "llm"
	ModeTemplate Mode = "template"
)

// Generator is the text-generation collaborator used in ModeLLM.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Company describes the sending agency.
type Company struct {
	Name        string `json:"name"`
	Agent       string `json:"agent"`
	Description string `json:"description"`
}

// Message is a generated email. It is never persisted.
type Message struct {
	Subject string
	Body    string
	HTML    bool
}

var ErrEmptyBody = errors.New("compose: generated body is empty")

// Composer builds supplier emails from enquiry rows.
type Composer struct {
	mode     Mode
	gen      Generator
	company  Company
	examples string
}

// New creates a Composer. ModeLLM requires a Generator.
func New(mode Mode, gen Generator, company Company, examples string) (*Composer, error) {
	switch mode {
	case ModeTemplate:
	case ModeLLM:
		if gen == nil {
			return nil, fmt.Errorf("compose: mode %q needs a text generator", mode)
		}
	default:
		return nil, fmt.Errorf("compose: unknown mode %q", mode)
	}
	return &Composer{mode: mode, gen: gen, company: company, examples: examples}, nil
}

// Mode returns the configured mode.
func (c *Composer) Mode() Mode { return c.mode }

// LoadExamples reads the style examples fed to the generator. A missing file
// yields no examples.
func LoadExamples(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("unable to read email examples %s: %w", path, err)
	}
	return string(b), nil
}

// Compose returns the subject and body for one supplier email.
func (c *Composer) Compose(ctx context.Context, supplierName string, trip Trip) (Message, error) {
	if c.mode == ModeLLM {
		return c.composeLLM(ctx, supplierName, trip)
	}
	return c.composeTemplate(supplierName, trip)
}

type view struct {
	Supplier string
	Company  Company
	Trip     Trip
	Examples string
}

func (c *Composer) composeLLM(ctx context.Context, supplierName string, trip Trip) (Message, error) {
	prompt, err := render(promptTmpl, view{Supplier: supplierName, Company: c.company, Trip: trip, Examples: c.examples})
	if err != nil {
		return Message{}, err
	}
	raw, err := c.gen.Generate(ctx, prompt)
	if err != nil {
		return Message{}, fmt.Errorf("text generation failed: %w", err)
	}
	body := StripFences(raw)
	if body == "" {
		return Message{}, ErrEmptyBody
	}
	subject := "Quotation Request for Upcoming Travel Booking"
	if !trip.WantsQuote {
		subject = fmt.Sprintf("Trip Enquiry for %s - %d PAX", trip.Destination, trip.Pax())
	}
	return Message{Subject: subject, Body: body, HTML: true}, nil
}

func (c *Composer) composeTemplate(supplierName string, trip Trip) (Message, error) {
	v := view{Supplier: supplierName, Company: c.company, Trip: trip}
	variant := VariantFor(trip)

	subject, err := render(variant.subject, v)
	if err != nil {
		return Message{}, err
	}
	var paragraphs []string
	for _, p := range variant.paragraphs {
		text, err := render(p, v)
		if err != nil {
			return Message{}, err
		}
		if text = strings.TrimSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return Message{Subject: subject, Body: strings.Join(paragraphs, "\n\n") + "\n"}, nil
}

// StripFences removes a leading fenced-block marker line (``` or ```html)
// and a trailing ``` from generated text.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(strings.TrimPrefix(text, "```html"), "```")
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
