package classifier

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/internal/processor"
	"github.com/motoroverpropage/motorover.in/pkg/types"
)

var (
	faqPattern      = regexp.MustCompile(`(?i)faq|question|answer`)
	questionPattern = regexp.MustCompile(`(?i)question|\bq\b|ask`)
	answerPattern   = regexp.MustCompile(`(?i)answer|\ba\b|response`)

	testimonialPattern = regexp.MustCompile(`(?i)testimonial|review|quote`)
	authorPattern      = regexp.MustCompile(`(?i)author|name|person`)

	durationPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:days?|nights?)`)
	datePatterns    = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}`),
		regexp.MustCompile(`\d{4}-\d{2}-\d{2}`),
	}

	memberPattern = regexp.MustCompile(`(?i)team|member|person|staff`)
	namePattern   = regexp.MustCompile(`(?i)name|title`)
	rolePattern   = regexp.MustCompile(`(?i)role|position|title`)
	bioPattern    = regexp.MustCompile(`(?i)bio|description|about`)

	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	phonePattern = regexp.MustCompile(`[+]?[(]?[0-9]{1,4}[)]?[-\s.]?[(]?[0-9]{1,4}[)]?[-\s.]?[0-9]{1,9}`)
)

// minTestimonialText is exclusive: a quote must be longer than this.
const minTestimonialText = 20

var (
	tourURLTokens = []string{"tour", "motorcycle", "self-drive"}
	teamURLTokens = []string{"team", "about"}
)

type socialHost struct {
	network string
	hosts   []string
}

// socialHosts is checked in order for every link; the first network whose
// host appears in the href claims it.
var socialHosts = []socialHost{
	{network: "facebook", hosts: []string{"facebook.com"}},
	{network: "twitter", hosts: []string{"twitter.com", "x.com"}},
	{network: "instagram", hosts: []string{"instagram.com"}},
	{network: "linkedin", hosts: []string{"linkedin.com"}},
}

func classifyFAQs(ctx *pageContext, found *types.Entities) {
	processor.FindByClass(ctx.root, faqPattern).Each(func(_ int, item *goquery.Selection) {
		question := processor.Text(processor.FirstByClass(item, questionPattern))
		answer := processor.Text(processor.FirstByClass(item, answerPattern))
		if question == "" || answer == "" {
			return
		}
		found.FAQs = append(found.FAQs, types.FAQ{
			Question:  question,
			Answer:    answer,
			SourceURL: ctx.page.URL,
		})
	})
}

func classifyTestimonials(ctx *pageContext, found *types.Entities) {
	processor.FindByClass(ctx.root, testimonialPattern).Each(func(_ int, item *goquery.Selection) {
		quote := processor.Text(item)
		if utf8.RuneCountInString(quote) <= minTestimonialText {
			return
		}
		found.Testimonials = append(found.Testimonials, types.Testimonial{
			Quote:  quote,
			Author: processor.Text(processor.FirstByClass(item, authorPattern)),
			Source: ctx.page.URL,
		})
	})
}

func classifyTour(ctx *pageContext, found *types.Entities) {
	if !containsAny(ctx.url, tourURLTokens) || ctx.page.Title == "" {
		return
	}
	tour := types.Tour{
		Name:         ctx.page.Title,
		URL:          ctx.page.URL,
		Type:         "self-drive",
		Dates:        []string{},
		Highlights:   []string{},
		Itinerary:    []string{},
		Inclusions:   []string{},
		Exclusions:   []string{},
		Gallery:      []string{},
		Testimonials: []string{},
	}
	if strings.Contains(ctx.url, "motorcycle") {
		tour.Type = "motorcycle"
	}
	tour.Duration = durationPattern.FindString(ctx.fullText)
	for _, pattern := range datePatterns {
		tour.Dates = append(tour.Dates, pattern.FindAllString(ctx.fullText, -1)...)
	}
	for _, block := range ctx.page.ContentBlocks {
		switch block.Type {
		case types.BlockItinerary:
			tour.Itinerary = append(tour.Itinerary, block.Content.Text)
		case types.BlockFeatureList:
			tour.Highlights = append(tour.Highlights, block.Content.Text)
		}
	}
	found.Tours = append(found.Tours, tour)
}

func classifyTeam(ctx *pageContext, found *types.Entities) {
	if !containsAny(ctx.url, teamURLTokens) {
		return
	}
	processor.FindByClass(ctx.root, memberPattern).Each(func(_ int, member *goquery.Selection) {
		name := processor.Text(processor.FirstByClass(member, namePattern))
		if name == "" {
			return
		}
		found.Team = append(found.Team, types.TeamMember{
			Name:    name,
			Role:    processor.Text(processor.FirstByClass(member, rolePattern)),
			Bio:     processor.Text(processor.FirstByClass(member, bioPattern)),
			Image:   member.Find("img").First().AttrOr("src", ""),
			Socials: map[string]string{},
		})
	})
}

func classifyContact(ctx *pageContext, found *types.Entities) {
	contact := types.Contact{
		URL:    ctx.page.URL,
		Email:  emailPattern.FindString(ctx.fullText),
		Phone:  phonePattern.FindString(ctx.fullText),
		Social: map[string]string{},
	}
	if contact.Email == "" && contact.Phone == "" {
		return
	}
	ctx.root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if network := socialNetwork(href); network != "" {
			contact.Social[network] = href
		}
	})
	found.Contact = append(found.Contact, contact)
}

func socialNetwork(href string) string {
	for _, s := range socialHosts {
		if containsAny(href, s.hosts) {
			return s.network
		}
	}
	return ""
}

func containsAny(s string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}
