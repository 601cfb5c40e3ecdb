package types

// Entities holds every domain record extracted during a crawl. Records are
// never merged across pages.
type Entities struct {
	Tours        []Tour        `json:"tours"`
	Team         []TeamMember  `json:"team"`
	FAQs         []FAQ         `json:"faqs"`
	Testimonials []Testimonial `json:"testimonials"`
	Payments     []any         `json:"payments"`
	Contact      []Contact     `json:"contact"`
}

// NewEntities returns an Entities value whose lists encode as [] rather than null.
func NewEntities() Entities {
	return Entities{
		Tours:        []Tour{},
		Team:         []TeamMember{},
		FAQs:         []FAQ{},
		Testimonials: []Testimonial{},
		Payments:     []any{},
		Contact:      []Contact{},
	}
}

// Tour is a tour offering detected on a tour page.
type Tour struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	Type          string   `json:"type"`
	Duration      string   `json:"duration"`
	Dates         []string `json:"dates"`
	StartLocation string   `json:"start_location"`
	EndLocation   string   `json:"end_location"`
	Highlights    []string `json:"highlights"`
	Itinerary     []string `json:"itinerary"`
	Inclusions    []string `json:"inclusions"`
	Exclusions    []string `json:"exclusions"`
	Gallery       []string `json:"gallery"`
	Testimonials  []string `json:"testimonials"`
}

// TeamMember is a person found on a team or about page.
type TeamMember struct {
	Name    string            `json:"name"`
	Role    string            `json:"role"`
	Bio     string            `json:"bio"`
	Image   string            `json:"image"`
	Socials map[string]string `json:"socials"`
}

// FAQ is a question/answer pair.
type FAQ struct {
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	SourceURL string `json:"source_url"`
}

// Testimonial is a customer quote.
type Testimonial struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
	Source string `json:"source"`
}

// Contact is the contact information found on a single page.
type Contact struct {
	URL     string            `json:"url"`
	Email   string            `json:"email"`
	Phone   string            `json:"phone"`
	Address string            `json:"address"`
	Social  map[string]string `json:"social"`
}
