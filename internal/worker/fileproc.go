package worker

import (
	"context"
	"fmt"
	"os"
	"time"

	"worker/internal/domain"
	"worker/internal/imaging"
	"worker/internal/infra"
	"worker/internal/providers/sogni"
)

// FileProcessor runs the per-input pipeline for a single file of a job:
// existence check, cover resize, model selection, submission with retry,
// completion wait, output-reference extraction. Failures are captured in
// the returned Output; nothing escapes this boundary.
type FileProcessor struct {
	client    sogni.GenerationClient
	retry     RetryPolicy
	postDelay time.Duration
	logger    infra.Logger
}

// NewFileProcessor builds a FileProcessor bound to an authenticated client.
func NewFileProcessor(client sogni.GenerationClient, retry RetryPolicy, postDelay time.Duration, logger infra.Logger) *FileProcessor {
	return &FileProcessor{
		client:    client,
		retry:     retry,
		postDelay: postDelay,
		logger:    logger,
	}
}

// Process produces the per-file result for one input path.
func (p *FileProcessor) Process(ctx context.Context, job *domain.Job, path string) domain.Output {
	log := p.logger.With().Str("job_id", job.JobID).Str("file", path).Logger()

	if _, err := os.Stat(path); err != nil {
		log.Warn().Msg("worker: missing input file")
		return domain.Output{Input: path, Error: "input missing"}
	}

	out := p.generate(ctx, job, path, log)

	// Fixed delay to smooth load on the provider.
	if p.postDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(p.postDelay):
		}
	}
	return out
}

func (p *FileProcessor) generate(ctx context.Context, job *domain.Job, path string, log infra.Logger) domain.Output {
	fail := func(msg string) domain.Output {
		log.Error().Str("reason", msg).Msg("worker: file failed")
		return domain.Output{Input: path, Error: msg}
	}

	width, height := imaging.ParseSize(job.ImageSize)

	src, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Sprintf("read input: %v", err))
	}
	resized, err := imaging.CoverResize(src, width, height)
	if err != nil {
		return fail(fmt.Sprintf("resize input: %v", err))
	}

	// Best effort: an empty model list just means fallback selection.
	available, err := p.client.AvailableModels(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("worker: model listing failed")
		available = nil
	}
	family := domain.DetectProviderFamily(job)
	model := SelectModel(family, job.ModelID, available)
	log.Info().Str("model", model).Str("token_type", family.TokenType()).Msg("worker: processing file")

	params := sogni.ProjectParams{
		ModelID:               model,
		PositivePrompt:        job.Prompt,
		NegativePrompt:        job.EffectiveNegativePrompt(),
		StartingImage:         resized,
		StartingImageStrength: job.EffectiveStrength(),
		Guidance:              job.EffectiveGuidance(),
		Steps:                 job.EffectiveSteps(),
		NumberOfImages:        1,
		OutputFormat:          "png",
		Width:                 width,
		Height:                height,
		TokenType:             family.TokenType(),
	}

	var handle sogni.ProjectHandle
	err = p.retry.Do(ctx, IsRateLimited, func() error {
		h, submitErr := p.client.Submit(ctx, params)
		if submitErr == nil {
			handle = h
		}
		return submitErr
	})
	if err != nil {
		return fail(err.Error())
	}

	result, err := p.client.AwaitCompletion(ctx, handle)
	if err != nil {
		return fail(err.Error())
	}
	url, ok := ExtractOutputRef(result)
	if !ok {
		return fail("no output reference")
	}

	log.Info().Str("url", url).Msg("worker: file done")
	return domain.Output{Input: path, URL: url, Error: ""}
}

// ExtractOutputRef pulls an output reference out of the loosely shaped
// completion result. Strategies are tried in order: raw string, first
// string of a list, url field, first entry of an outputs list. The first
// match wins.
func ExtractOutputRef(result any) (string, bool) {
	switch v := result.(type) {
	case string:
		if v != "" {
			return v, true
		}
	case []string:
		if len(v) > 0 && v[0] != "" {
			return v[0], true
		}
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok && s != "" {
				return s, true
			}
		}
	case map[string]any:
		if s, ok := v["url"].(string); ok && s != "" {
			return s, true
		}
		if outputs, ok := v["outputs"].([]any); ok && len(outputs) > 0 {
			if first, ok := outputs[0].(map[string]any); ok {
				if s, ok := first["url"].(string); ok && s != "" {
					return s, true
				}
			}
		}
	}
	return "", false
}
