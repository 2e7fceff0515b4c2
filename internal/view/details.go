package view

import (
	"strconv"
	"strings"

	"github.com/justyntemme/shelf/internal/catalog"
	"github.com/justyntemme/shelf/internal/models"
)

// Placeholder is shown for absent numeric fields
const Placeholder = "—"

// maxSubjects caps the subjects line
const maxSubjects = 8

// Details is the view model for one selected result
type Details struct {
	Key              string `json:"key"`
	Title            string `json:"title"`
	Authors          string `json:"authors"`
	FirstPublishYear string `json:"first_publish_year"`
	EditionCount     string `json:"edition_count"`
	Subjects         string `json:"subjects,omitempty"`
	HasSubjects      bool   `json:"has_subjects"`
	Saved            bool   `json:"saved"`
	Link             string `json:"link"`
}

// BuildDetails derives the details view for item
func BuildDetails(item models.SearchResultItem, saved bool) Details {
	d := Details{
		Key:              item.ID(),
		Title:            item.Title,
		Authors:          strings.Join(item.AuthorNames, ", "),
		FirstPublishYear: optionalInt(item.FirstPublishYear),
		EditionCount:     optionalInt(item.EditionCount),
		Saved:            saved,
		Link:             catalog.CanonicalURL(item.Key),
	}

	if item.Subjects != nil {
		subjects := item.Subjects
		if len(subjects) > maxSubjects {
			subjects = subjects[:maxSubjects]
		}
		d.Subjects = strings.Join(subjects, ", ")
		d.HasSubjects = true
	}
	return d
}

func optionalInt(v *int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.Itoa(*v)
}
