package processor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// invisibleTags never contribute visible text.
var invisibleTags = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
}

// Text returns the visible, whitespace-collapsed text of every node in sel,
// joining text runs with a single space.
func Text(sel *goquery.Selection) string {
	return JoinedText(sel, " ")
}

// JoinedText is Text with a custom separator between text runs.
func JoinedText(sel *goquery.Selection, sep string) string {
	if sel == nil {
		return ""
	}
	parts := make([]string, 0, 8)
	for _, node := range sel.Nodes {
		parts = collectText(node, parts)
	}
	return strings.Join(parts, sep)
}

func collectText(node *html.Node, parts []string) []string {
	if node == nil {
		return parts
	}
	switch node.Type {
	case html.TextNode:
		if text := normalizeWhitespace(node.Data); text != "" {
			parts = append(parts, text)
		}
	case html.ElementNode, html.DocumentNode:
		if _, skip := invisibleTags[strings.ToLower(node.Data)]; skip && node.Type == html.ElementNode {
			return parts
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			parts = collectText(child, parts)
		}
	}
	return parts
}

func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func getAttr(node *html.Node, attr string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, attr) {
			return a.Val
		}
	}
	return ""
}

// ClassMatches reports whether pattern matches any single class token of the
// first node in sel, or the class attribute as a whole.
func ClassMatches(sel *goquery.Selection, pattern *regexp.Regexp) bool {
	if sel == nil || len(sel.Nodes) == 0 {
		return false
	}
	return classMatches(sel.Nodes[0], pattern)
}

func classMatches(node *html.Node, pattern *regexp.Regexp) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	class := getAttr(node, "class")
	if class == "" {
		return false
	}
	for _, token := range strings.Fields(class) {
		if pattern.MatchString(token) {
			return true
		}
	}
	return pattern.MatchString(class)
}

// FindByClass returns every descendant element of sel whose class matches
// pattern, in document order.
func FindByClass(sel *goquery.Selection, pattern *regexp.Regexp) *goquery.Selection {
	return sel.Find("[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return classMatches(s.Nodes[0], pattern)
	})
}

// FirstByClass returns the first descendant of sel whose class matches pattern.
func FirstByClass(sel *goquery.Selection, pattern *regexp.Regexp) *goquery.Selection {
	return FindByClass(sel, pattern).First()
}
