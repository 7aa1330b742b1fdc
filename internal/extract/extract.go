// Package extract turns raw page bodies into structured catalog records. The
// crawler core only depends on the interfaces here; the selector rules live
// in the site-specific implementation.
package extract

import (
	"errors"

	"github.com/Iyapetai69/Otakudesuscrap/pkg/types"
)

// ErrUnparsable marks a body that is not the expected document at all.
// Partial records (missing synopsis, missing poster) are not errors; the
// crawler persists whatever could be extracted.
var ErrUnparsable = errors.New("document does not match expected structure")

// Extractor maps raw page content to structured records, one method per page
// kind. Implementations must tolerate missing optional fields and only fail
// on structurally alien documents.
type Extractor interface {
	Home(body []byte) ([]types.ListItem, error)
	Ongoing(body []byte) ([]types.ListItem, error)
	GenreList(body []byte) ([]types.Genre, error)
	Schedule(body []byte) ([]types.ScheduleDay, error)
	AnimeDetail(body []byte, slug string) (*types.AnimeDetail, error)
	EpisodeDetail(body []byte, slug string) (*types.EpisodeDetail, error)
}

// URLBuilder maps work items to fetchable URLs on the target site.
type URLBuilder interface {
	URLFor(item types.WorkItem) (string, error)
}
