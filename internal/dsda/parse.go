package dsda

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/keshon/dsda-bot/internal/mapid"
)

// Demo tables use rowspans for the leading columns, so continuation rows carry
// fewer cells. Cells are therefore read right-aligned and missing leading
// columns are inherited from the previous row.
//
// wad page:    level | category | players | engine | note | time
// player page: wad   | level    | category | engine | note | time
var (
	wadColumns    = []string{"level", "category", "players", "engine", "note", "time"}
	playerColumns = []string{"wad", "level", "category", "engine", "note", "time"}
)

// parseIndex collects unique links under prefix ("/players/", "/wads/").
func parseIndex(doc *goquery.Document, base *url.URL, prefix string) []Page {
	seen := make(map[string]bool)
	var pages []Page
	doc.Find("table a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		ref, err := url.Parse(href)
		if err != nil || !strings.HasPrefix(ref.Path, prefix) || len(ref.Path) == len(prefix) {
			return
		}
		u := base.ResolveReference(ref).String()
		name := normalizeSpace(a.Text())
		if name == "" || seen[u] {
			return
		}
		seen[u] = true
		pages = append(pages, Page{URL: u, Name: name})
	})
	return pages
}

// parseDemos reads the demo table of a wad or player page. Rows whose time
// cell is not a demo time (placeholders such as "-") are returned in skipped
// and left out of demos.
func parseDemos(doc *goquery.Document, base *url.URL, columns []string) (demos []demo, skipped []string) {
	prev := make(map[string]string, len(columns))

	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("td")
		n := cells.Length()
		if n == 0 || n > len(columns) {
			return
		}

		row := make(map[string]string, len(columns))
		offset := len(columns) - n
		for i, col := range columns {
			if i < offset {
				row[col] = prev[col]
				continue
			}
			row[col] = normalizeSpace(cells.Eq(i - offset).Text())
		}
		for k, v := range row {
			prev[k] = v
		}

		timeCell := cells.Last()
		d, err := parseDemoTime(row["time"])
		if err != nil {
			skipped = append(skipped, row["time"])
			return
		}

		entry := demo{
			Wad:      row["wad"],
			Level:    row["level"],
			Category: row["category"],
			Engine:   row["engine"],
			Note:     row["note"],
			Time:     d,
			TimeText: row["time"],
			TAS:      tr.HasClass("tas") || strings.Contains(strings.ToLower(row["note"]), "tas"),
		}
		if players := row["players"]; players != "" {
			for _, p := range strings.Split(players, ",") {
				if p = strings.TrimSpace(p); p != "" {
					entry.Players = append(entry.Players, p)
				}
			}
		}
		if href, ok := timeCell.Find("a[href]").First().Attr("href"); ok {
			if ref, err := url.Parse(href); err == nil {
				entry.DemoURL = base.ResolveReference(ref).String()
			}
		}
		demos = append(demos, entry)
	})

	return demos, skipped
}

// parseLastUpdate returns the first <time> on the page, preferring its datetime attribute.
func parseLastUpdate(doc *goquery.Document) (string, error) {
	t := doc.Find("time").First()
	if t.Length() == 0 {
		return "", fmt.Errorf("no update marker on page")
	}
	if v, ok := t.Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}
	if v := normalizeSpace(t.Text()); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("empty update marker")
}

// matchLevel reports whether a level label from a demo table names the map id.
func matchLevel(label string, id mapid.ID) bool {
	l := strings.ToLower(strings.ReplaceAll(label, " ", ""))
	switch id.Kind {
	case mapid.Map:
		return l == id.Key() || l == fmt.Sprintf("map%d", id.Map)
	case mapid.EpisodeMap:
		return l == id.Key()
	case mapid.Episode:
		return l == id.Key() || l == fmt.Sprintf("episode%d", id.Episode) || l == fmt.Sprintf("ep%d", id.Episode)
	case mapid.AllMaps:
		return l == id.Key()
	}
	return false
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
