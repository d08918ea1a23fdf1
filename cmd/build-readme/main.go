// cmd/build-readme/main.go regenerates README.md from README.md.tmpl.
package main

import (
	"github.com/sirupsen/logrus"

	"github.com/keshon/dsda-bot/internal/config"
	"github.com/keshon/dsda-bot/internal/docs"
	"github.com/keshon/dsda-bot/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid configuration")
	}
	log := cfg.Logger()

	prefix := cfg.CommandPrefixes[0] + cfg.CommandGroup
	// The client is never called while listing commands.
	rt := router.New(nil, log)

	if err := docs.UpdateReadme("README.md.tmpl", "README.md", prefix, rt.Commands()); err != nil {
		log.WithError(err).Fatal("Failed to update README")
	}
	log.Info("README.md updated")
}
