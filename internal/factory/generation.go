package factory

import (
	"github.com/anthropics/anthropic-sdk-go"
	antoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"

	"github.com/parksyoung/It-Da-sub000/internal/analysis"
	"github.com/parksyoung/It-Da-sub000/internal/config"
	"github.com/parksyoung/It-Da-sub000/internal/generation"
	genanthropic "github.com/parksyoung/It-Da-sub000/internal/generation/anthropic"
	genopenai "github.com/parksyoung/It-Da-sub000/internal/generation/openai"
)

// NewGenerator creates the counsel text generator.
func NewGenerator(cfg *config.Config, log zerolog.Logger) generation.Generator {
	switch cfg.GenerationProvider {
	case "anthropic":
		var opts []antoption.RequestOption
		if cfg.AnthropicAPIKey != "" {
			opts = append(opts, antoption.WithAPIKey(cfg.AnthropicAPIKey))
		}
		return genanthropic.New(opts, func(o *genanthropic.Options) {
			if cfg.GenerationModel != "" {
				o.Model = anthropic.Model(cfg.GenerationModel)
			}
		})
	default:
		if cfg.GenerationProvider != "openai" {
			log.Warn().Str("provider", cfg.GenerationProvider).Msg("unknown generation provider; using openai")
		}
		return genopenai.New(openAIOptions(cfg), func(o *genopenai.Options) {
			if cfg.GenerationModel != "" {
				o.Model = cfg.GenerationModel
			}
		})
	}
}

// NewAnalysisEngine creates the structured-output analysis engine.
func NewAnalysisEngine(cfg *config.Config, log zerolog.Logger) analysis.Engine {
	return analysis.NewOpenAI(openAIOptions(cfg), func(o *analysis.Options) {
		if cfg.AnalysisModel != "" {
			o.Model = cfg.AnalysisModel
		}
		o.Log = log
	})
}
