package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/models"
)

// OpenLibraryClient performs title searches against the Open Library API
type OpenLibraryClient struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// Option configures an OpenLibraryClient
type Option func(*OpenLibraryClient)

// WithBaseURL points the client at a different host (tests, mirrors)
func WithBaseURL(baseURL string) Option {
	return func(c *OpenLibraryClient) {
		c.client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *OpenLibraryClient) {
		c.client.SetTimeout(d)
	}
}

// WithRateInterval sets the minimum spacing between outbound requests.
// Zero disables spacing.
func WithRateInterval(d time.Duration) Option {
	return func(c *OpenLibraryClient) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewOpenLibraryClient creates a new Open Library search client
func NewOpenLibraryClient(opts ...Option) *OpenLibraryClient {
	c := &OpenLibraryClient{
		client: resty.New().
			SetBaseURL(DefaultBaseURL).
			SetTimeout(10*time.Second).
			SetHeader("Accept", "application/json"),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// olSearchResponse represents an Open Library search response
type olSearchResponse struct {
	NumFound *int          `json:"numFound"`
	Docs     []olSearchDoc `json:"docs"`
}

// olSearchDoc represents a document in search results
type olSearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear *int     `json:"first_publish_year"`
	EditionCount     *int     `json:"edition_count"`
	Subject          []string `json:"subject"`
}

// Search fetches one page of title matches. Cancelling ctx yields ErrCancelled.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &RequestFailedError{Message: "empty query"}
	}
	if page < 1 {
		page = 1
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, &RequestFailedError{Message: err.Error()}
	}

	log := logger.For(ctx).WithField("query", query).WithField("page", page)
	log.Debug("calling Open Library search")

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"title": query,
			"page":  strconv.Itoa(page),
			"limit": strconv.Itoa(PageSize),
		}).
		Get("/search.json")
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return nil, ErrCancelled
		}
		return nil, &RequestFailedError{Message: err.Error()}
	}

	if !resp.IsSuccess() {
		log.WithField("status", resp.StatusCode()).Warn("Open Library search returned non-2xx")
		return nil, &RequestFailedError{Status: resp.StatusCode()}
	}

	var data olSearchResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return nil, &RequestFailedError{Message: "invalid response body: " + err.Error()}
	}

	return convertSearchResponse(&data), nil
}

// convertSearchResponse normalizes absent docs and numFound
func convertSearchResponse(data *olSearchResponse) *Page {
	page := &Page{Results: make([]models.SearchResultItem, 0, len(data.Docs))}
	if data.NumFound != nil && *data.NumFound > 0 {
		page.NumFound = *data.NumFound
	}
	for i := range data.Docs {
		page.Results = append(page.Results, convertSearchDoc(&data.Docs[i]))
	}
	return page
}

// convertSearchDoc converts a search document to a result item
func convertSearchDoc(doc *olSearchDoc) models.SearchResultItem {
	authors := doc.AuthorName
	if authors == nil {
		authors = []string{}
	}
	return models.SearchResultItem{
		Key:              doc.Key,
		Title:            doc.Title,
		AuthorNames:      authors,
		FirstPublishYear: doc.FirstPublishYear,
		EditionCount:     doc.EditionCount,
		Subjects:         doc.Subject,
	}
}
