package cmd

import (
	"sort"
	"strings"
)

// Registry stores commands by name and alias. It does not perform dispatch; each
// adapter looks up commands and invokes them with its own context.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command under its name and every alias the root command declares.
func (r *Registry) Register(c Command) {
	name := strings.ToLower(c.Name())
	r.commands[name] = c
	r.aliases[name] = name
	if a, ok := Root(c).(Aliased); ok {
		for _, alias := range a.Aliases() {
			r.aliases[strings.ToLower(alias)] = name
		}
	}
}

// Resolve maps a name or alias to the canonical command name.
func (r *Registry) Resolve(name string) (string, bool) {
	canonical, ok := r.aliases[strings.ToLower(strings.TrimSpace(name))]
	return canonical, ok
}

// Get returns the command registered under the given name or alias, or nil.
func (r *Registry) Get(name string) Command {
	canonical, ok := r.Resolve(name)
	if !ok {
		return nil
	}
	return r.commands[canonical]
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
