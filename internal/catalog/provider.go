package catalog

import (
	"errors"
	"fmt"

	"github.com/justyntemme/shelf/internal/models"
)

// PageSize is the fixed number of documents requested per page
const PageSize = 20

// DefaultBaseURL is the public Open Library host
const DefaultBaseURL = "https://openlibrary.org"

// ErrCancelled reports a request superseded or torn down by its caller.
// It is never an error to display.
var ErrCancelled = errors.New("search request cancelled")

// RequestFailedError reports a non-2xx response or a transport/parse failure
type RequestFailedError struct {
	Status  int // 0 when no HTTP status was received
	Message string
}

func (e *RequestFailedError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("search request failed: HTTP %d", e.Status)
	}
	return "search request failed: " + e.Message
}

// Page is one page of normalized search results
type Page struct {
	Results  []models.SearchResultItem `json:"results"`
	NumFound int                       `json:"num_found"`
}

// CanonicalURL returns the catalog page for an item key such as "/works/OL1W"
func CanonicalURL(key string) string {
	return DefaultBaseURL + key
}
