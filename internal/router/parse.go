package router

import (
	"fmt"
	"strings"

	"github.com/keshon/dsda-bot/internal/mapid"
)

// operation is one row of the alias table. Rows are registered as commands
// by New, so the router registry is the only name lookup.
type operation struct {
	op          Op
	aliases     []string
	description string
	parse       func(args string) (Query, error)
}

var operations = []operation{
	{op: OpRecord, aliases: []string{"gr"}, description: "Get record for a wad, category and optional map", parse: parseRecord},
	{op: OpPlayerStats, aliases: []string{"ps"}, description: "Get player stats", parse: parsePlayerStats},
	{op: OpWadStats, aliases: []string{"ws"}, description: "Get wad stats", parse: parseWadStats},
	{op: OpRandomPlayerPage, aliases: []string{"rpp"}, description: "Random player page", parse: noArgs(OpRandomPlayerPage)},
	{op: OpRandomWadPage, aliases: []string{"rwp"}, description: "Random wad page", parse: noArgs(OpRandomWadPage)},
	{op: OpHelp, description: "Show available commands", parse: noArgs(OpHelp)},
}

func parseRecord(args string) (Query, error) {
	tokens := tokenize(args)
	if len(tokens) < 2 || tokens[0] == "" || tokens[1] == "" {
		return Query{}, fmt.Errorf("%w: get_record needs a wad and a category", ErrMissingArgument)
	}

	var raw *string
	if len(tokens) > 2 {
		raw = &tokens[2]
	}
	m, err := mapid.Normalize(raw)
	if err != nil {
		return Query{}, err
	}

	return Query{Op: OpRecord, Wad: tokens[0], Category: tokens[1], Map: m}, nil
}

func parsePlayerStats(args string) (Query, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return Query{}, fmt.Errorf("%w: playerstats needs a player name", ErrMissingArgument)
	}
	return Query{Op: OpPlayerStats, Player: name}, nil
}

func parseWadStats(args string) (Query, error) {
	name := strings.TrimSpace(args)
	if name == "" {
		return Query{}, fmt.Errorf("%w: wadstats needs a wad name", ErrMissingArgument)
	}
	return Query{Op: OpWadStats, Wad: name}, nil
}

func noArgs(op Op) func(string) (Query, error) {
	return func(string) (Query, error) {
		return Query{Op: op}, nil
	}
}

// tokenize splits on whitespace; text inside double quotes (straight or curly)
// is one token. An unterminated quote runs to the end of the input.
func tokenize(s string) []string {
	var (
		tokens  []string
		cur     strings.Builder
		inQuote bool
		quoted  bool
	)
	flush := func() {
		if cur.Len() > 0 || quoted {
			tokens = append(tokens, cur.String())
		}
		cur.Reset()
		quoted = false
	}

	for _, r := range s {
		switch {
		case r == '"' || r == '“' || r == '”':
			inQuote = !inQuote
			quoted = true
		case !inQuote && (r == ' ' || r == '\t' || r == '\n' || r == '\r'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
