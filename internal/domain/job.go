package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "queued"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether a status is an end state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Submit-time defaults applied when a job omits the corresponding parameter.
const (
	DefaultStrength       = 0.55
	DefaultPromptStrength = 7.5
	DefaultSteps          = 20
	DefaultNegativePrompt = "lowres, watermark, bad anatomy"
)

// Job is one unit of generation work. Its JSON encoding is the on-disk
// record layout, one file per job. Request parameters are immutable after
// creation; only status, startedAt, completedAt, outputs and error change
// over the job's lifetime.
type Job struct {
	JobID          string    `json:"jobId"`
	Status         JobStatus `json:"status"`
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negativePrompt,omitempty"`
	Strength       *float64  `json:"strength,omitempty"`
	PromptStrength *float64  `json:"promptStrength,omitempty"`
	Steps          *int      `json:"steps,omitempty"`
	ModelID        string    `json:"modelId,omitempty"`
	ImageSize      string    `json:"imageSize,omitempty"`
	Files          []string  `json:"files"`
	Username       string    `json:"username,omitempty"`
	UserToken      string    `json:"userToken,omitempty"`
	RefreshToken   string    `json:"refreshToken,omitempty"`
	TokenType      string    `json:"tokenType,omitempty"`
	CreatedAt      int64     `json:"createdAt,omitempty"`
	StartedAt      int64     `json:"startedAt,omitempty"`
	CompletedAt    int64     `json:"completedAt,omitempty"`
	Outputs        []Output  `json:"outputs,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// Output is the per-file result recorded for each entry of Job.Files. URL
// and Error are mutually exclusive: a successful file has a URL and an
// empty error, a failed one has only the error message.
type Output struct {
	Input string `json:"input"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error"`
}

// Succeeded reports whether this file produced an output reference.
func (o Output) Succeeded() bool {
	return o.Error == "" && o.URL != ""
}

// NewJobParams carries the request parameters for job creation.
type NewJobParams struct {
	Prompt         string
	NegativePrompt string
	Strength       *float64
	PromptStrength *float64
	Steps          *int
	ModelID        string
	ImageSize      string
	Files          []string
	Username       string
	UserToken      string
	RefreshToken   string
	TokenType      string
}

// NewJob builds a queued job record from upload-handler input. A job with
// zero input files is invalid and never reaches the store.
func NewJob(p NewJobParams) (*Job, error) {
	if len(p.Files) == 0 {
		return nil, ErrNoInputFiles
	}
	return &Job{
		JobID:          uuid.NewString(),
		Status:         JobStatusQueued,
		Prompt:         p.Prompt,
		NegativePrompt: p.NegativePrompt,
		Strength:       p.Strength,
		PromptStrength: p.PromptStrength,
		Steps:          p.Steps,
		ModelID:        p.ModelID,
		ImageSize:      p.ImageSize,
		Files:          append([]string(nil), p.Files...),
		Username:       p.Username,
		UserToken:      p.UserToken,
		RefreshToken:   p.RefreshToken,
		TokenType:      p.TokenType,
		CreatedAt:      time.Now().UnixMilli(),
	}, nil
}

// EffectiveStrength returns the starting-image strength to submit.
func (j *Job) EffectiveStrength() float64 {
	if j.Strength != nil {
		return *j.Strength
	}
	return DefaultStrength
}

// EffectiveGuidance returns the prompt guidance to submit.
func (j *Job) EffectiveGuidance() float64 {
	if j.PromptStrength != nil {
		return *j.PromptStrength
	}
	return DefaultPromptStrength
}

// EffectiveSteps returns the step count to submit.
func (j *Job) EffectiveSteps() int {
	if j.Steps != nil {
		return *j.Steps
	}
	return DefaultSteps
}

// EffectiveNegativePrompt returns the negative prompt to submit.
func (j *Job) EffectiveNegativePrompt() string {
	if strings.TrimSpace(j.NegativePrompt) != "" {
		return j.NegativePrompt
	}
	return DefaultNegativePrompt
}

// Redact shortens a credential for logging. Tokens are secrets and must
// never appear in full in log output.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
