package types

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind identifies one of the page kinds the crawler knows how to process.
type Kind string

const (
	KindHome     Kind = "home"
	KindOngoing  Kind = "ongoing"
	KindGenres   Kind = "genres"
	KindSchedule Kind = "schedule"
	KindAnime    Kind = "anime"
	KindEpisode  Kind = "episode"
)

// Kinds lists every supported page kind.
func Kinds() []Kind {
	return []Kind{KindHome, KindOngoing, KindGenres, KindSchedule, KindAnime, KindEpisode}
}

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "home":
		return KindHome, nil
	case "ongoing":
		return KindOngoing, nil
	case "genres", "genrelist", "genre-list":
		return KindGenres, nil
	case "schedule", "jadwal":
		return KindSchedule, nil
	case "anime":
		return KindAnime, nil
	case "episode":
		return KindEpisode, nil
	}
	return "", fmt.Errorf("unknown page kind %q", s)
}

// Stage returns the crawl stage this kind belongs to. Listing kinds are
// processed first, anime detail pages second, episode detail pages last.
func (k Kind) Stage() int {
	switch k {
	case KindAnime:
		return 1
	case KindEpisode:
		return 2
	default:
		return 0
	}
}

// Dir returns the output directory name for this kind. The names match the
// layout the original dataset shipped with.
func (k Kind) Dir() string {
	switch k {
	case KindGenres:
		return "genrelist"
	case KindSchedule:
		return "jadwal"
	default:
		return string(k)
	}
}

func (k Kind) String() string { return string(k) }

// WorkItem is one unit of crawl work: a page kind plus its stable id.
// Identity is the (Kind, ID) pair; singleton kinds use a fixed id and
// paginated kinds use "p<N>".
type WorkItem struct {
	Kind Kind
	ID   string
}

// Key returns the dedupe key for the item.
func (w WorkItem) Key() string { return string(w.Kind) + "/" + w.ID }

func (w WorkItem) String() string { return w.Key() }

// Page represents fetched content for a single URL.
type Page struct {
	URL             string
	Body            []byte
	ContentType     string
	StatusCode      int
	Headers         http.Header
	FetchedAt       time.Time
	Rendered        bool
	Attempts        int
	ResponseLatency time.Duration
}

// SlugFromURL derives the stable identifier from the trailing path segment of
// a canonical URL.
func SlugFromURL(raw string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
