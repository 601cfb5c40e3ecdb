package processor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

type purposeRule struct {
	purpose  string
	keywords []string
}

// purposeRules are evaluated in order; the first group with a keyword present
// in the form text decides the purpose.
var purposeRules = []purposeRule{
	{purpose: "contact", keywords: []string{"contact", "enquiry"}},
	{purpose: "booking", keywords: []string{"book", "reservation"}},
	{purpose: "newsletter", keywords: []string{"newsletter", "subscribe"}},
	{purpose: "payment", keywords: []string{"payment", "pay"}},
}

const defaultPurpose = "general"

func (e *Extractor) extractForms(root *goquery.Selection, pageURL string) []types.FormSpec {
	forms := []types.FormSpec{}
	root.Find("form").Each(func(_ int, form *goquery.Selection) {
		action := strings.TrimSpace(form.AttrOr("action", ""))
		if action != "" {
			if normalized, ok := e.normalizer.Normalize(action, pageURL); ok {
				action = normalized
			} else {
				action = ""
			}
		}

		fields := []types.FormField{}
		form.Find("input, textarea, select").Each(func(_ int, input *goquery.Selection) {
			fields = append(fields, buildField(root, input))
		})

		forms = append(forms, types.FormSpec{
			ID:      form.AttrOr("id", ""),
			Purpose: inferPurpose(Text(form)),
			Action:  action,
			Method:  strings.ToLower(form.AttrOr("method", "get")),
			Fields:  fields,
		})
	})
	return forms
}

func buildField(root, input *goquery.Selection) types.FormField {
	_, required := input.Attr("required")
	field := types.FormField{
		Name:        input.AttrOr("name", ""),
		Type:        input.AttrOr("type", "text"),
		ID:          input.AttrOr("id", ""),
		Placeholder: input.AttrOr("placeholder", ""),
		Required:    required,
	}

	if field.ID != "" {
		label := root.Find("label").FilterFunction(func(_ int, l *goquery.Selection) bool {
			return l.AttrOr("for", "") == field.ID
		}).First()
		field.Label = Text(label)
	}
	if field.Label == "" {
		if parent := input.Parent(); goquery.NodeName(parent) == "label" {
			field.Label = Text(parent)
		}
	}
	return field
}

func inferPurpose(formText string) string {
	text := strings.ToLower(formText)
	for _, rule := range purposeRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(text, keyword) {
				return rule.purpose
			}
		}
	}
	return defaultPurpose
}
