package videosession

import (
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const DefaultMeetingBaseURL = "https://meet.jit.si"

// randomShortID returns the first 8 hex chars of a random UUID.
func randomShortID() string {
	return uuid.New().String()[:8]
}

var shortID = randomShortID

// LinkGenerator builds join URLs for the external meeting service.
type LinkGenerator struct {
	baseURL string
}

func NewLinkGenerator(baseURL string) *LinkGenerator {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultMeetingBaseURL
	}
	return &LinkGenerator{baseURL: baseURL}
}

// Generate returns a fresh link for `title`. Two calls never share a link.
func (g *LinkGenerator) Generate(title string) string {
	return g.baseURL + "/" + slug.Make(title) + "_" + shortID()
}
