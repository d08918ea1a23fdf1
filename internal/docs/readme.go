// Package docs renders README.md from the routed command set.
package docs

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/keshon/dsda-bot/pkg/cmd"
)

// CommandInfo is one README row.
type CommandInfo struct {
	Name        string
	Aliases     []string
	Description string
}

// Commands lists commands in registry order with their aliases.
func Commands(commands []cmd.Command) []CommandInfo {
	out := make([]CommandInfo, 0, len(commands))
	for _, c := range commands {
		info := CommandInfo{Name: c.Name(), Description: c.Description()}
		if a, ok := cmd.Root(c).(cmd.Aliased); ok {
			info.Aliases = a.Aliases()
		}
		out = append(out, info)
	}
	return out
}

// CommandSection renders the markdown list of commands invoked as
// "<prefix> <name>".
func CommandSection(prefix string, commands []CommandInfo) string {
	var buf bytes.Buffer
	for _, c := range commands {
		fmt.Fprintf(&buf, "- **`%s %s`**", prefix, c.Name)
		if len(c.Aliases) > 0 {
			fmt.Fprintf(&buf, " (`%s`)", c.Aliases[0])
		}
		fmt.Fprintf(&buf, " %s\n", c.Description)
	}
	return buf.String()
}

// UpdateReadme executes the template at tmplPath into outPath.
func UpdateReadme(tmplPath, outPath, prefix string, commands []cmd.Command) error {
	raw, err := os.ReadFile(tmplPath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tmpl, err := template.New("readme").Funcs(sprig.TxtFuncMap()).Parse(string(raw))
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}

	infos := Commands(commands)
	data := struct {
		Prefix          string
		Commands        []CommandInfo
		CommandSections string
	}{
		Prefix:          prefix,
		Commands:        infos,
		CommandSections: CommandSection(prefix, infos),
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, data); err != nil {
		return fmt.Errorf("render readme: %w", err)
	}
	return os.WriteFile(outPath, out.Bytes(), 0644)
}
