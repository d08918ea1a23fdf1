// Package router maps loosely formatted user text ("gr scythe \"uv speed\" 7")
// onto typed queries against the records site and renders the replies.
package router

import (
	"github.com/keshon/dsda-bot/internal/mapid"
)

// Op identifies one routed operation.
type Op int

const (
	OpRecord Op = iota + 1
	OpPlayerStats
	OpWadStats
	OpRandomPlayerPage
	OpRandomWadPage
	OpHelp
)

func (o Op) String() string {
	switch o {
	case OpRecord:
		return "get_record"
	case OpPlayerStats:
		return "playerstats"
	case OpWadStats:
		return "wadstats"
	case OpRandomPlayerPage:
		return "random_player_page"
	case OpRandomWadPage:
		return "random_wad_page"
	case OpHelp:
		return "help"
	}
	return "unknown"
}

// Query is one parsed invocation. Only the fields of its Op are set.
type Query struct {
	Op       Op
	Wad      string
	Category string
	Map      mapid.ID
	Player   string
}
