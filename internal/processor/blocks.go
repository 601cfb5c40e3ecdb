package processor

import (
	"regexp"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// minBlockText is the shortest text a classed section must carry to become a block.
const minBlockText = 10

var heroPattern = regexp.MustCompile(`(?i)hero|banner|header`)

type blockRule struct {
	blockType string
	pattern   *regexp.Regexp
}

// blockRules are tested in order against the element's class attribute.
// Several tags overlap ("day" vs "highlight"), so the order is significant.
var blockRules = []blockRule{
	{types.BlockItinerary, regexp.MustCompile(`(?i)itinerary|day|schedule`)},
	{types.BlockGallery, regexp.MustCompile(`(?i)gallery|image|photo`)},
	{types.BlockTestimonial, regexp.MustCompile(`(?i)testimonial|review|quote`)},
	{types.BlockFAQ, regexp.MustCompile(`(?i)faq|question|answer`)},
	{types.BlockPricing, regexp.MustCompile(`(?i)pricing|price|cost`)},
	{types.BlockFeatureList, regexp.MustCompile(`(?i)feature|highlight|benefit`)},
	{types.BlockCTA, regexp.MustCompile(`(?i)cta|call.*action|button`)},
}

// chromeSelector matches subtrees that never contribute content blocks.
const chromeSelector = "script, style, nav, header, footer"

// contentRoot returns a detached copy of the main content element with page
// chrome removed. The document itself is left untouched.
func contentRoot(root *goquery.Selection) *goquery.Selection {
	for _, tag := range []string{"main", "article", "body"} {
		if found := root.Find(tag).First(); found.Length() > 0 {
			clone := found.Clone()
			clone.Find(chromeSelector).Remove()
			return clone
		}
	}
	return nil
}

func extractBlocks(root *goquery.Selection) []types.ContentBlock {
	blocks := []types.ContentBlock{}
	main := contentRoot(root)
	if main == nil {
		return blocks
	}

	if hero := FirstByClass(main, heroPattern); hero.Length() > 0 {
		blocks = append(blocks, newBlock(types.BlockHero, Text(hero), hero))
	}

	main.Find("section[class], div[class]").Each(func(_ int, section *goquery.Selection) {
		text := Text(section)
		if utf8.RuneCountInString(text) < minBlockText {
			return
		}
		blocks = append(blocks, newBlock(classifyBlock(section), text, section))
	})

	if len(blocks) == 0 {
		if text := JoinedText(main, "\n"); text != "" {
			blocks = append(blocks, newBlock(types.BlockText, text, main))
		}
	}
	return blocks
}

func classifyBlock(section *goquery.Selection) string {
	class := section.AttrOr("class", "")
	for _, rule := range blockRules {
		if rule.pattern.MatchString(class) {
			return rule.blockType
		}
	}
	return types.BlockText
}

func newBlock(blockType, text string, sel *goquery.Selection) types.ContentBlock {
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		markup = ""
	}
	return types.ContentBlock{
		Type:    blockType,
		Content: types.BlockContent{Text: text, HTML: markup},
	}
}
