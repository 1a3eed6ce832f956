package parser

import (
	"errors"
	"fmt"
	"strings"

	"hn-order-checker/models"

	"github.com/PuerkitoBio/goquery"
)

// Selectors describing the Hacker News listing markup
const (
	ArticleSelector  = ".athing"
	titleSelector    = ".titleline > a"
	ageSelector      = ".age"
	MoreLinkSelector = "a.morelink"
)

// ErrNoArticles is returned when a page contains no article rows
var ErrNoArticles = errors.New("no articles found on page")

// Page is the content extracted from one listing page
type Page struct {
	Articles []models.Article
	MoreHref string // Raw href of the "more" link, empty on the last page
}

// Parser extracts articles from listing HTML
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseHTML extracts the articles of one page in document order. Article
// indices start at startIndex.
func (p *Parser) ParseHTML(htmlContent string, startIndex int) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &Page{}
	doc.Find(ArticleSelector).Each(func(i int, s *goquery.Selection) {
		page.Articles = append(page.Articles, p.extractArticle(s, startIndex+i))
	})

	if len(page.Articles) == 0 {
		return nil, ErrNoArticles
	}

	page.MoreHref = doc.Find(MoreLinkSelector).First().AttrOr("href", "")

	return page, nil
}

// extractArticle reads one article row. The age indicator lives in the
// subtext row that follows it.
func (p *Parser) extractArticle(s *goquery.Selection, index int) models.Article {
	article := models.Article{
		ID:    s.AttrOr("id", ""),
		Index: index,
	}

	if title := s.Find(titleSelector).First(); title.Length() > 0 {
		article.Title = strings.TrimSpace(title.Text())
	}

	if age := s.Next().Find(ageSelector).First(); age.Length() > 0 {
		article.Timestamp = strings.TrimSpace(age.AttrOr("title", ""))
		article.RelativeTime = strings.TrimSpace(age.Text())
	}

	return article
}
