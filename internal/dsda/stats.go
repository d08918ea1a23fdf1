package dsda

import (
	"fmt"
	"strings"
	"time"
)

// demo is one row of a wad or player demo table.
type demo struct {
	Wad      string
	Level    string
	Category string
	Players  []string
	Engine   string
	Note     string
	Time     time.Duration
	TimeText string
	DemoURL  string
	TAS      bool
}

// counter tallies names, remembering first-seen order so ties are stable.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(name string) {
	if name == "" {
		return
	}
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

func (c *counter) distinct() int { return len(c.order) }

func (c *counter) max() NameCount {
	var best NameCount
	for _, name := range c.order {
		if c.counts[name] > best.Count {
			best = NameCount{Name: name, Count: c.counts[name]}
		}
	}
	return best
}

func playerStats(name string, demos []demo) *PlayerStats {
	wads := newCounter()
	categories := newCounter()
	var total, longest time.Duration
	tas := 0

	for _, d := range demos {
		total += d.Time
		if d.Time > longest {
			longest = d.Time
		}
		if d.TAS {
			tas++
		}
		wads.add(d.Wad)
		categories.add(d.Category)
	}

	perWad := "0.00"
	if wads.distinct() > 0 {
		perWad = fmt.Sprintf("%.2f", float64(len(demos))/float64(wads.distinct()))
	}

	return &PlayerStats{
		PlayerName:        name,
		TotalRunCount:     len(demos),
		TotalTime:         formatDemoTime(total),
		LongestTime:       formatDemoTime(longest),
		AverageTime:       formatDemoTime(average(total, len(demos))),
		TASRunCount:       tas,
		AverageRunsPerWad: perWad,
		NumDistinctWads:   wads.distinct(),
		MaxWad:            wads.max(),
		MaxCategory:       categories.max(),
	}
}

func wadStats(name string, demos []demo) *WadStats {
	players := newCounter()
	var total time.Duration

	for _, d := range demos {
		total += d.Time
		for _, p := range d.Players {
			players.add(strings.TrimSpace(p))
		}
	}

	return &WadStats{
		WadName:            name,
		TotalRunCount:      len(demos),
		TotalTime:          formatDemoTime(total),
		AverageTime:        formatDemoTime(average(total, len(demos))),
		NumDistinctPlayers: players.distinct(),
		MaxPlayer:          players.max(),
	}
}

func average(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}
