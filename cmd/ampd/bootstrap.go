package main

import (
	"amp/internal/config"
	"amp/internal/media"
)

func newProvider(cfg *config.Config) media.Provider {
	return media.NewDirectoryProvider(cfg.Paths.MediaDir)
}
