// Package review extracts reviews and the review summary from a product page
// snapshot.
package review

import (
	"regexp"
	"strings"

	"sjsage522/reviewworker/helpers"
	"sjsage522/reviewworker/internal/loader"

	"github.com/PuerkitoBio/goquery"
)

// Selectors locate review data on the product page
type Selectors struct {
	ReviewItem string
	Count      string
}

// DefaultSelectors returns the selectors of the LG product page
func DefaultSelectors() Selectors {
	return Selectors{
		ReviewItem: "#divReviewList li[data-review-id]",
		Count:      "#reviewCount",
	}
}

var (
	starRegex       = regexp.MustCompile(`([0-9.]+)점`)
	userNamePrefix  = regexp.MustCompile(`^\s*구매자 이름\s*`)
	purchasePrefix  = regexp.MustCompile(`^\s*구매 일자\s*`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// Extractor turns a goquery document into reviews and summaries
type Extractor struct {
	Selectors    Selectors
	MediaBaseURL string
}

// NewExtractor creates an extractor for the given media base URL
func NewExtractor(selectors Selectors, mediaBaseURL string) *Extractor {
	return &Extractor{
		Selectors:    selectors,
		MediaBaseURL: mediaBaseURL,
	}
}

// ExtractReviews reads every loaded review item in document order
func (e *Extractor) ExtractReviews(doc *goquery.Document) []Review {
	items := doc.Find(e.Selectors.ReviewItem)
	reviews := make([]Review, 0, items.Length())
	items.Each(func(_ int, s *goquery.Selection) {
		reviews = append(reviews, e.extractReview(s))
	})
	return reviews
}

func (e *Extractor) extractReview(s *goquery.Selection) Review {
	r := Review{
		ModelID:  attrOr(s, "data-model-id", "unknownModel"),
		ReviewID: attrOr(s, "data-review-id", "unknownId"),
	}

	if m := starRegex.FindStringSubmatch(s.Find(".star-wrap .blind").First().Text()); m != nil {
		r.Star = m[1]
	}
	r.Evaluation = strings.TrimSpace(s.Find(".score-wrap .txt").First().Text())

	s.Find(".rating-list li").Each(func(_ int, li *goquery.Selection) {
		r.Ratings = append(r.Ratings, Rating{
			Name:  strings.TrimSpace(li.Find("dt").First().Text()),
			Value: strings.TrimSpace(li.Find("dd").First().Text()),
		})
	})

	r.UserName = strings.TrimSpace(userNamePrefix.ReplaceAllString(s.Find(".user-name").First().Text(), ""))
	r.PurchaseDate = strings.TrimSpace(purchasePrefix.ReplaceAllString(s.Find(".purchase-date").First().Text(), ""))
	r.Message = strings.TrimSpace(innerText(s.Find(".message").First()))

	r.ImageURLs = e.mediaURLs(s.Find(".media-list .thumb img"))
	r.VideoURLs = e.mediaURLs(s.Find(".media-list video"))

	return r
}

// mediaURLs collects src attributes, resolving site-relative /kr paths
func (e *Extractor) mediaURLs(sel *goquery.Selection) []string {
	var urls []string
	sel.Each(func(_ int, m *goquery.Selection) {
		src, _ := m.Attr("src")
		if src == "" {
			return
		}
		if strings.HasPrefix(src, "/kr") {
			src = helpers.ResolveURL(e.MediaBaseURL, src)
		}
		urls = append(urls, src)
	})
	return urls
}

// ExtractSummary reads the product name, model, review count, score and
// keyword list from the product page
func (e *Extractor) ExtractSummary(doc *goquery.Document) Summary {
	summary := Summary{
		ReviewCount: "0",
		Score:       "0",
	}

	if nameSel := doc.Find(".product-name .name").First(); nameSel.Length() > 0 {
		// The first child node holds the bare product name
		base := strings.TrimSpace(nameSel.Contents().First().Text())
		parts := []string{whitespaceRegex.ReplaceAllString(base, "")}
		nameSel.Find(".sub-text-new .item").Each(func(_ int, item *goquery.Selection) {
			parts = append(parts, strings.TrimSpace(item.Text()))
		})
		summary.ProductName = strings.Join(parts, " |")
	}

	if modelSel := doc.Find(".sku.copy").First(); modelSel.Length() > 0 {
		clone := modelSel.Clone()
		clone.Find(".blind").Remove()
		summary.ModelName = strings.TrimSpace(clone.Text())
	}

	if digits, ok := loader.MatchCount(doc.Find(e.Selectors.Count).First().Text()); ok {
		summary.ReviewCount = digits
	}

	if score := strings.TrimSpace(doc.Find("#reviewScore").First().Text()); score != "" {
		summary.Score = score
	}

	doc.Find(".summary-wrap li").Each(func(_ int, li *goquery.Selection) {
		text := strings.TrimSpace(li.Find(".summary").First().Text())
		percent := strings.TrimSpace(li.Find(".percent").First().Text())
		summary.Keywords = append(summary.Keywords, "- "+text+" "+percent)
	})

	return summary
}

// CountLabel returns the raw text of the review counter
func (e *Extractor) CountLabel(doc *goquery.Document) string {
	return doc.Find(e.Selectors.Count).First().Text()
}

func attrOr(s *goquery.Selection, name, fallback string) string {
	if v, ok := s.Attr(name); ok && v != "" {
		return v
	}
	return fallback
}

// innerText approximates the rendered text of a selection, turning <br>
// into newlines
func innerText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	clone := sel.Clone()
	clone.Find("br").ReplaceWithHtml("\n")
	return clone.Text()
}
