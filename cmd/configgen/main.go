package main

import (
	"flag"

	"github.com/danmuck/timeweaver/internal/config"
	"github.com/danmuck/timeweaver/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	kind := flag.String("kind", "alarmd", "config kind: alarmd|alarms")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	observability.InitLogger("configgen")

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}

		switch *kind {
		case "alarmd":
			if _, err := config.LoadAlarmdConfig(path); err != nil {
				log.Fatal().Err(err).Str("kind", *kind).Msg("config failed")
			}
		case "alarms":
			if _, err := config.LoadAlarmsFile(path); err != nil {
				log.Fatal().Err(err).Str("kind", *kind).Msg("config failed")
			}
		default:
			log.Fatal().Str("kind", *kind).Msg("unknown kind")
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}

	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Str("kind", *kind).Msg("config failed")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}

func defaultPath(kind string) string {
	switch kind {
	case "alarmd":
		return "cmd/alarmd/config.toml"
	case "alarms":
		return "local/alarms.toml"
	default:
		log.Fatal().Str("kind", kind).Msg("unknown kind")
		return ""
	}
}
