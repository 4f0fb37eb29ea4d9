package prompt

import "fmt"

// Kind identifies one of the fixed request templates.
type Kind string

const (
	KindProfile Kind = "profile"
	KindQA      Kind = "qa"
)

// Template is a fixed instruction pair with FString interpolation points.
type Template struct {
	System    string
	User      string
	Variables []string
}

// Catalog holds the templates by kind.
type Catalog struct {
	templates map[Kind]*Template
}

// NewCatalog creates a catalog with the built-in astrologer templates.
func NewCatalog() *Catalog {
	c := &Catalog{templates: make(map[Kind]*Template)}
	c.loadDefaultTemplates()
	return c
}

// Lookup returns the template registered for kind.
func (c *Catalog) Lookup(kind Kind) (*Template, error) {
	tpl, ok := c.templates[kind]
	if !ok {
		return nil, fmt.Errorf("prompt template not found: %s", kind)
	}
	return tpl, nil
}

func (c *Catalog) loadDefaultTemplates() {
	// Missing detail is tolerated at the prompt level: the model is told to
	// stay broad rather than the caller being forced to supply it.
	c.templates[KindProfile] = &Template{
		System: "You are a friendly professional astrologer. Build a short profile strictly from the user's birth details. " +
			"If a detail is missing (like coordinates), infer broad insights without claiming precision. " +
			"Avoid deterministic predictions. Keep it concise (120-180 words). " +
			"Use sections: 'Key Themes', 'Strengths', 'Watch-outs', and end with one practical tip.",
		User: "Name: {name}\nDOB: {dob}\nTOB: {tob}\nPlace: {place}\n" +
			"Create a concise natal-style overview.",
		Variables: []string{"name", "dob", "tob", "place"},
	}

	c.templates[KindQA] = &Template{
		System: "You are an astrologer answering one focused question. " +
			"Use the provided profile for context and the birth details. " +
			"Offer supportive, actionable guidance (100-150 words), avoid fatalistic claims, no medical/financial guarantees. " +
			"End with 2-3 concrete next steps.",
		User: "Birth Details -> Name: {name}; DOB: {dob}; TOB: {tob}; Place: {place}\n" +
			"Profile Context:\n{profile}\n" +
			"Question: {question}",
		Variables: []string{"name", "dob", "tob", "place", "profile", "question"},
	}
}
