package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/timeweaver/internal/daemon"
	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "path to alarmd config.toml (defaults apply when empty)")
	flag.Parse()

	observability.InitLogger("alarmd")

	cfg := daemon.DefaultServiceConfig()
	if *configPath != "" {
		loaded, err := loadServiceConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "alarmd: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
		log.Info().Str("path", *configPath).Msg("loaded alarmd config")
	}

	svc := daemon.NewServiceWithConfig(cfg)
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "alarmd: %v\n", err)
		os.Exit(1)
	}
}
