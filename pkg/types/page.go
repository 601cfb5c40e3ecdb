package types

// Block types assigned by the markup extractor.
const (
	BlockHero        = "hero"
	BlockItinerary   = "itinerary"
	BlockGallery     = "gallery"
	BlockTestimonial = "testimonial"
	BlockFAQ         = "faq"
	BlockPricing     = "pricing"
	BlockFeatureList = "feature-list"
	BlockCTA         = "cta"
	BlockText        = "text"
)

// Page is the structural decomposition of one fetched HTML document.
type Page struct {
	URL                 string              `json:"url"`
	Slug                string              `json:"slug"`
	Title               string              `json:"title"`
	MetaDescription     string              `json:"metaDescription"`
	Canonical           string              `json:"canonical"`
	Lang                string              `json:"lang"`
	Headings            map[string][]string `json:"headings"`
	ContentBlocks       []ContentBlock      `json:"contentBlocks"`
	Images              []ImageRef          `json:"images"`
	Forms               []FormSpec          `json:"forms"`
	InternalLinks       []Link              `json:"internalLinks"`
	StructuredDataHints []StructuredHint    `json:"structuredDataHints"`
}

// ContentBlock is a classified chunk of page content.
type ContentBlock struct {
	Type    string       `json:"type"`
	Content BlockContent `json:"content"`
}

// BlockContent carries both the visible text and the raw markup of a block.
type BlockContent struct {
	Text string `json:"text"`
	HTML string `json:"html"`
}

// ImageRef describes an image element found on a page.
type ImageRef struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Width   *int   `json:"width"`
	Height  *int   `json:"height"`
	Caption string `json:"caption"`
	Context string `json:"context"`
}

// AssetRecord is the global media reference later enriched by the image
// pipeline (original/webp/avif/srcset/sizes are attached by matching URL).
type AssetRecord struct {
	URL     string `json:"url"`
	Type    string `json:"type"`
	PageURL string `json:"page_url"`
	Alt     string `json:"alt"`
}

// FormSpec describes a form and its fields.
type FormSpec struct {
	ID      string      `json:"id"`
	Purpose string      `json:"purpose"`
	Action  string      `json:"action"`
	Method  string      `json:"method"`
	Fields  []FormField `json:"fields"`
}

// FormField describes a single input, textarea or select element.
type FormField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	ID          string `json:"id"`
	Placeholder string `json:"placeholder"`
	Label       string `json:"label"`
	Required    bool   `json:"required"`
}

// Link is a same-domain anchor with its visible text.
type Link struct {
	Anchor string `json:"anchor"`
	Target string `json:"target"`
}

// StructuredHint records a JSON-LD block or a microdata item type.
type StructuredHint struct {
	Type     string `json:"type"`
	Data     any    `json:"data,omitempty"`
	ItemType string `json:"itemtype,omitempty"`
}
