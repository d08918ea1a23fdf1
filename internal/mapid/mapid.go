// Package mapid normalizes user-typed map references ("e1m1", "map07", "d1ep2",
// "d2all", "7") into a canonical identifier used as a lookup key on wad pages.
package mapid

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind tells which canonical form an ID holds.
type Kind int

const (
	// FirstMap means no map was given: only the first map on the wad page is searched.
	FirstMap Kind = iota
	EpisodeMap
	Map
	Episode
	AllMaps
)

// ID is the canonical form of a map reference.
type ID struct {
	Kind        Kind
	Episode     int
	Map         int
	DoomEpisode int
}

// ErrInvalidFormat matches every *FormatError via errors.Is.
var ErrInvalidFormat = errors.New("invalid map format")

// FormatError reports map text that matches none of the accepted grammars.
type FormatError struct {
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid map format %q", e.Text)
}

func (e *FormatError) Is(target error) bool { return target == ErrInvalidFormat }

var (
	episodeMapRe = regexp.MustCompile(`(?i)^e(\d+)m(\d+)$`)
	mapRe        = regexp.MustCompile(`(?i)^map(\d+)$`)
	episodeRe    = regexp.MustCompile(`(?i)^d(\d+)ep(\d+)$`)
	allRe        = regexp.MustCompile(`(?i)^d(\d+)all$`)
	bareRe       = regexp.MustCompile(`^(\d{1,2})$`)
)

// Normalize turns optional raw text into a canonical ID. A nil raw yields the
// FirstMap form; text matching no grammar yields a *FormatError.
func Normalize(raw *string) (ID, error) {
	if raw == nil {
		return ID{Kind: FirstMap}, nil
	}
	return Parse(*raw)
}

// Parse normalizes explicit map text.
func Parse(text string) (ID, error) {
	s := strings.TrimSpace(text)

	if m := episodeMapRe.FindStringSubmatch(s); m != nil {
		return build(text, EpisodeMap, m[1], m[2])
	}
	if m := mapRe.FindStringSubmatch(s); m != nil {
		return build(text, Map, m[1])
	}
	if m := bareRe.FindStringSubmatch(s); m != nil {
		return build(text, Map, m[1])
	}
	if m := episodeRe.FindStringSubmatch(s); m != nil {
		return build(text, Episode, m[1], m[2])
	}
	if m := allRe.FindStringSubmatch(s); m != nil {
		return build(text, AllMaps, m[1])
	}
	return ID{}, &FormatError{Text: text}
}

func build(text string, kind Kind, groups ...string) (ID, error) {
	nums := make([]int, len(groups))
	for i, g := range groups {
		n, err := strconv.Atoi(g)
		if err != nil {
			return ID{}, &FormatError{Text: text}
		}
		nums[i] = n
	}

	id := ID{Kind: kind}
	switch kind {
	case EpisodeMap:
		id.Episode, id.Map = nums[0], nums[1]
	case Map:
		id.Map = nums[0]
	case Episode:
		id.DoomEpisode, id.Episode = nums[0], nums[1]
	case AllMaps:
		id.DoomEpisode = nums[0]
	}
	return id, nil
}

// IsFirstMap reports whether the ID selects only the first map on the page.
func (id ID) IsFirstMap() bool { return id.Kind == FirstMap }

// Key is the compact lowercase lookup key: e1m1, map07, d1ep2, d2all.
// Single-digit map numbers are left-padded to two digits.
func (id ID) Key() string {
	switch id.Kind {
	case EpisodeMap:
		return fmt.Sprintf("e%dm%d", id.Episode, id.Map)
	case Map:
		return fmt.Sprintf("map%02d", id.Map)
	case Episode:
		return fmt.Sprintf("d%dep%d", id.DoomEpisode, id.Episode)
	case AllMaps:
		return fmt.Sprintf("d%dall", id.DoomEpisode)
	}
	return ""
}

func (id ID) String() string {
	if id.Kind == FirstMap {
		return "first map"
	}
	return strings.ToUpper(id.Key())
}
