package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/parksyoung/It-Da-sub000/itdaservice"
)

func main() {
	if err := itdaservice.Run(); err != nil {
		log.Error().Err(err).Msg("itda-service exited with error")
		os.Exit(1)
	}
}
