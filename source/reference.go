package source

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/mo"
)

// MediaType distinguishes catalog movies from series episodes.
type MediaType string

const (
	Movie  MediaType = "movie"
	Series MediaType = "series"
)

// ParseMediaType accepts "movie", "series" and the common "tv" alias.
func ParseMediaType(s string) (MediaType, error) {
	switch s {
	case "movie", "film":
		return Movie, nil
	case "series", "tv", "show":
		return Series, nil
	default:
		return "", fmt.Errorf("%w: unknown media type %q", ErrInvalidReference, s)
	}
}

// ErrInvalidReference is returned when a MediaReference cannot be resolved.
var ErrInvalidReference = errors.New("invalid media reference")

// MediaReference identifies what to resolve. It is built once per request and never mutated.
type MediaReference struct {
	ExternalID int            `json:"externalId"`
	Type       MediaType      `json:"mediaType"`
	Season     mo.Option[int] `json:"season"`
	Episode    mo.Option[int] `json:"episode"`
}

// NewMovie returns a reference to a movie.
func NewMovie(id int) MediaReference {
	return MediaReference{
		ExternalID: id,
		Type:       Movie,
		Season:     mo.None[int](),
		Episode:    mo.None[int](),
	}
}

// NewEpisode returns a reference to one episode of a series.
func NewEpisode(id, season, episode int) MediaReference {
	return MediaReference{
		ExternalID: id,
		Type:       Series,
		Season:     mo.Some(season),
		Episode:    mo.Some(episode),
	}
}

// Validate reports whether the reference is complete enough to build lookup URLs.
func (r MediaReference) Validate() error {
	if r.ExternalID <= 0 {
		return fmt.Errorf("%w: external id must be positive, got %d", ErrInvalidReference, r.ExternalID)
	}

	switch r.Type {
	case Movie:
		return nil
	case Series:
		if r.Season.IsAbsent() || r.Episode.IsAbsent() {
			return fmt.Errorf("%w: series require a season and an episode", ErrInvalidReference)
		}
		if r.Season.MustGet() < 0 || r.Episode.MustGet() <= 0 {
			return fmt.Errorf("%w: season %d episode %d", ErrInvalidReference, r.Season.MustGet(), r.Episode.MustGet())
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown media type %q", ErrInvalidReference, r.Type)
	}
}

// CacheKey renders mediaType:externalId:season:episode, with empty parts for movies.
func (r MediaReference) CacheKey() string {
	opt := func(o mo.Option[int]) string {
		if v, ok := o.Get(); ok {
			return strconv.Itoa(v)
		}
		return ""
	}
	return fmt.Sprintf("%s:%d:%s:%s", r.Type, r.ExternalID, opt(r.Season), opt(r.Episode))
}

// String is used in log lines.
func (r MediaReference) String() string {
	if r.Type == Series {
		return fmt.Sprintf("series %d S%02dE%02d", r.ExternalID, r.Season.OrEmpty(), r.Episode.OrEmpty())
	}
	return fmt.Sprintf("movie %d", r.ExternalID)
}
