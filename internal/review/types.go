package review

import (
	"strings"

	"sjsage522/reviewworker/helpers"
)

// Rating is one line of the per-aspect evaluation list
type Rating struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Review represents a single scraped customer review
type Review struct {
	ModelID      string   `json:"model_id"`
	ReviewID     string   `json:"review_id"`
	Star         string   `json:"star"`
	Evaluation   string   `json:"evaluation"`
	Ratings      []Rating `json:"ratings,omitempty"`
	UserName     string   `json:"user_name"`
	PurchaseDate string   `json:"purchase_date"`
	Message      string   `json:"message"`
	ImageURLs    []string `json:"image_urls,omitempty"`
	VideoURLs    []string `json:"video_urls,omitempty"`
}

// FileName returns the archive entry name for the review
func (r Review) FileName() string {
	return r.ModelID + "_" + r.ReviewID + ".txt"
}

// Text renders the review as the exported plain-text document
func (r Review) Text() string {
	ratings := make([]string, len(r.Ratings))
	for i, rating := range r.Ratings {
		ratings[i] = "- " + rating.Name + ": " + rating.Value
	}

	sections := []string{
		"별점: " + r.Star,
		"평가: " + r.Evaluation,
		"주요항목 평가:",
		strings.Join(ratings, "\n"),
		"작성자: " + r.UserName,
		"구매일자: " + r.PurchaseDate,
		"리뷰 본문:",
		r.Message,
		"이미지 URL:",
		bulletList(r.ImageURLs),
		"동영상 URL:",
		bulletList(r.VideoURLs),
	}
	return strings.Join(sections, "\n\n")
}

// Summary represents the product-level review overview
type Summary struct {
	ProductName string   `json:"product_name"`
	ModelName   string   `json:"model_name"`
	ReviewCount string   `json:"review_count"`
	Score       string   `json:"score"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Text renders the summary as the exported plain-text document
func (s Summary) Text() string {
	lines := []string{
		"제품명 : " + s.ProductName,
		"모델명 : " + s.ModelName,
		"리뷰개수 : " + s.ReviewCount,
		"별점 : " + s.Score,
		"장점 키워드",
	}
	lines = append(lines, s.Keywords...)
	return strings.Join(lines, "\n")
}

// FileName returns the summary file name derived from the model name
func (s Summary) FileName() string {
	name := s.ModelName
	if name == "" {
		name = "review_summary"
	}
	return helpers.SanitizeFileName(name) + ".txt"
}

func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
