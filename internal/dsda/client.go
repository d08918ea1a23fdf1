// Package dsda talks to the Doom speedrun records site: record lookups, player
// and wad statistics, random pages and the "last update" freshness marker.
package dsda

import (
	"context"
	"errors"

	"github.com/keshon/dsda-bot/internal/mapid"
)

// ErrNotFound is returned when a player, wad or record does not exist upstream.
var ErrNotFound = errors.New("not found")

// Record is the best demo for a wad, category and map.
type Record struct {
	Time    string
	Player  string
	DemoURL string
}

// NameCount pairs a name with the number of demos attributed to it.
type NameCount struct {
	Name  string
	Count int
}

// PlayerStats summarizes every demo of one player. Times are pre-formatted.
type PlayerStats struct {
	PlayerName        string
	TotalRunCount     int
	TotalTime         string
	LongestTime       string
	AverageTime       string
	TASRunCount       int
	AverageRunsPerWad string
	NumDistinctWads   int
	MaxWad            NameCount
	MaxCategory       NameCount
}

// WadStats summarizes every demo recorded for one wad. Times are pre-formatted.
type WadStats struct {
	WadName            string
	TotalRunCount      int
	TotalTime          string
	AverageTime        string
	NumDistinctPlayers int
	MaxPlayer          NameCount
}

// Page is a player or wad page on the records site.
type Page struct {
	URL  string
	Name string
}

// Client is the records site contract shared by the command router and the
// update watcher. Lookups return a possibly nil success value together with
// a human readable fallback message that callers show when the value is nil.
// Implementations must be safe for concurrent use.
type Client interface {
	GetRecord(ctx context.Context, wad, category string, m mapid.ID) (*Record, string)
	GetPlayerStats(ctx context.Context, player string) (*PlayerStats, string)
	GetWadStats(ctx context.Context, wad string) (*WadStats, string)
	RandomPlayerPage(ctx context.Context) (*Page, string)
	RandomWadPage(ctx context.Context) (*Page, string)
	LastUpdate(ctx context.Context) (string, error)
	SyncFull(ctx context.Context) error
}
