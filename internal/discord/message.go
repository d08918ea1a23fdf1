package discord

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxMessageLen = 2000

// parseMessage splits "<prefix><group> <command> <args>" into the command
// name and its raw argument text. ok is false when content is not addressed
// to the bot. A bare "<prefix><group>" yields an empty name.
func parseMessage(content string, prefixes []string, group string) (name, args string, ok bool) {
	content = strings.TrimSpace(content)
	for _, p := range prefixes {
		if p == "" || !strings.HasPrefix(content, p) {
			continue
		}
		word, rest := cutWord(content[len(p):])
		if !strings.EqualFold(word, group) {
			continue
		}
		name, args = cutWord(rest)
		return strings.ToLower(name), args, true
	}
	return "", "", false
}

// cutWord returns the first whitespace separated word and the trimmed rest.
func cutWord(s string) (string, string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// splitMessage breaks text into chunks of at most limit bytes, preferring
// line boundaries.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	var cur strings.Builder
	for _, line := range strings.SplitAfter(text, "\n") {
		for len(line) > limit {
			if cur.Len() > 0 {
				chunks = append(chunks, cur.String())
				cur.Reset()
			}
			cut := truncate(line, limit)
			chunks = append(chunks, cut)
			line = line[len(cut):]
		}
		if cur.Len()+len(line) > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
