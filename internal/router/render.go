package router

import (
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/keshon/dsda-bot/internal/dsda"
)

var templates = template.Must(template.New("replies").
	Funcs(sprig.TxtFuncMap()).
	Option("missingkey=error").
	Parse(`
{{- define "record" -}}
**{{ .Time | trim }}** by **{{ .Player | trim }}**
Demo link: {{ .DemoURL }}
{{- end -}}

{{- define "player_stats" -}}
` + "```" + `Player name: {{ .PlayerName }}
Total demo count: {{ .TotalRunCount }}
Total demo time: {{ .TotalTime }}
Longest demo: {{ .LongestTime }}
Average demo time: {{ .AverageTime }}
TAS demo count: {{ .TASRunCount }}
Average demos per wad: {{ .AverageRunsPerWad }}
Number of distinct wads: {{ .NumDistinctWads }}
Maximum recorded wad: {{ .MaxWad }}, {{ .MaxWadCount }} demos
Maximum recorded category: {{ .MaxCategory }}, {{ .MaxCategoryCount }} demos` + "```" + `
{{- end -}}

{{- define "wad_stats" -}}
` + "```" + `Wad name: {{ .WadName }}
Total demo count: {{ .TotalRunCount }}
Total demo time: {{ .TotalTime }}
Average demo time: {{ .AverageTime }}
Number of players: {{ .NumDistinctPlayers }}
Player with most demos: {{ .MaxPlayer }}, {{ .MaxPlayerCount }} demos` + "```" + `
{{- end -}}

{{- define "page" -}}
{{ .Name | trim }}: {{ .URL }}
{{- end -}}
`))

const (
	noName  = "None"
	noCount = "no"
)

type playerStatsView struct {
	dsda.PlayerStats
	MaxWad           string
	MaxWadCount      string
	MaxCategory      string
	MaxCategoryCount string
}

type wadStatsView struct {
	dsda.WadStats
	MaxPlayer      string
	MaxPlayerCount string
}

// sentinel replaces a zero-count entry with ("None", "no") so the template
// never prints an empty name.
func sentinel(nc dsda.NameCount) (string, string) {
	if nc.Count == 0 {
		return noName, noCount
	}
	return nc.Name, strconv.Itoa(nc.Count)
}

func renderRecord(r *dsda.Record) (string, error) {
	return execute("record", r)
}

func renderPlayerStats(s *dsda.PlayerStats) (string, error) {
	v := playerStatsView{PlayerStats: *s}
	v.MaxWad, v.MaxWadCount = sentinel(s.MaxWad)
	v.MaxCategory, v.MaxCategoryCount = sentinel(s.MaxCategory)
	return execute("player_stats", v)
}

func renderWadStats(s *dsda.WadStats) (string, error) {
	v := wadStatsView{WadStats: *s}
	v.MaxPlayer, v.MaxPlayerCount = sentinel(s.MaxPlayer)
	return execute("wad_stats", v)
}

func renderPage(p *dsda.Page) (string, error) {
	return execute("page", p)
}

func execute(name string, data any) (string, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
