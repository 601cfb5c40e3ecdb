package processor

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/motoroverpropage/motorover.in/pkg/types"
)

// imageSourceAttrs lists the attributes checked for an image source, in priority order.
var imageSourceAttrs = []string{"src", "data-src", "data-lazy-src"}

func (e *Extractor) extractImages(root *goquery.Selection, pageURL string) ([]types.ImageRef, []types.AssetRecord) {
	images := []types.ImageRef{}
	assets := []types.AssetRecord{}

	root.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := firstAttr(img, imageSourceAttrs...)
		if src == "" {
			return
		}
		normalized, ok := e.normalizer.Normalize(src, pageURL)
		if !ok {
			return
		}
		alt := strings.TrimSpace(img.AttrOr("alt", ""))

		ref := types.ImageRef{
			Src:     normalized,
			Alt:     alt,
			Width:   digitsOnly(firstAttr(img, "width", "data-width")),
			Height:  digitsOnly(firstAttr(img, "height", "data-height")),
			Caption: Text(img.Parent().Find("figcaption").First()),
			Context: "page",
		}
		images = append(images, ref)
		assets = append(assets, types.AssetRecord{
			URL:     normalized,
			Type:    "image",
			PageURL: pageURL,
			Alt:     alt,
		})
	})
	return images, assets
}

// firstAttr returns the first non-empty value among attrs.
func firstAttr(sel *goquery.Selection, attrs ...string) string {
	for _, attr := range attrs {
		if v := strings.TrimSpace(sel.AttrOr(attr, "")); v != "" {
			return v
		}
	}
	return ""
}

// digitsOnly parses value only when it is a plain run of ASCII digits.
func digitsOnly(value string) *int {
	if value == "" {
		return nil
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}
