package domain

import "testing"

func TestNewJobRejectsEmptyFiles(t *testing.T) {
	if _, err := NewJob(NewJobParams{Prompt: "a castle"}); err != ErrNoInputFiles {
		t.Fatalf("expected ErrNoInputFiles, got %v", err)
	}
}

func TestNewJobInitialState(t *testing.T) {
	job, err := NewJob(NewJobParams{
		Prompt: "a castle",
		Files:  []string{"/uploads/u1/a.png"},
	})
	if err != nil {
		t.Fatalf("NewJob returned error: %v", err)
	}
	if job.JobID == "" {
		t.Fatalf("expected a job id")
	}
	if job.Status != JobStatusQueued {
		t.Fatalf("status mismatch: %s", job.Status)
	}
	if job.CreatedAt == 0 {
		t.Fatalf("createdAt not set")
	}
	if job.StartedAt != 0 || job.CompletedAt != 0 {
		t.Fatalf("lifecycle timestamps set prematurely")
	}
}

func TestEffectiveDefaults(t *testing.T) {
	job := &Job{}
	if got := job.EffectiveStrength(); got != DefaultStrength {
		t.Fatalf("strength default mismatch: %v", got)
	}
	if got := job.EffectiveGuidance(); got != DefaultPromptStrength {
		t.Fatalf("guidance default mismatch: %v", got)
	}
	if got := job.EffectiveSteps(); got != DefaultSteps {
		t.Fatalf("steps default mismatch: %v", got)
	}
	if got := job.EffectiveNegativePrompt(); got != DefaultNegativePrompt {
		t.Fatalf("negative prompt default mismatch: %q", got)
	}

	zero := 0.0
	steps := 12
	job = &Job{Strength: &zero, Steps: &steps, NegativePrompt: "blurry"}
	if got := job.EffectiveStrength(); got != 0 {
		t.Fatalf("explicit zero strength not honored: %v", got)
	}
	if got := job.EffectiveSteps(); got != 12 {
		t.Fatalf("explicit steps not honored: %v", got)
	}
	if got := job.EffectiveNegativePrompt(); got != "blurry" {
		t.Fatalf("explicit negative prompt not honored: %q", got)
	}
}

func TestDetectProviderFamily(t *testing.T) {
	tests := []struct {
		name string
		job  Job
		want ProviderFamily
	}{
		{name: "explicit token type", job: Job{TokenType: "spark"}, want: FamilySpark},
		{name: "explicit token type mixed case", job: Job{TokenType: " Spark "}, want: FamilySpark},
		{name: "token marker", job: Job{UserToken: "xxSPARKxx"}, want: FamilySpark},
		{name: "username marker", job: Job{Username: "spark-user"}, want: FamilySpark},
		{name: "default", job: Job{Username: "alice", UserToken: "tok"}, want: FamilySogni},
		{name: "empty", job: Job{}, want: FamilySogni},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectProviderFamily(&tt.job); got != tt.want {
				t.Fatalf("family mismatch: got %s want %s", got, tt.want)
			}
		})
	}
}

func TestProviderFamilyNetwork(t *testing.T) {
	if got := FamilySpark.Network(); got != "spark" {
		t.Fatalf("spark network mismatch: %q", got)
	}
	if got := FamilySogni.Network(); got != "fast" {
		t.Fatalf("sogni network mismatch: %q", got)
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("secret-token"); got != "secr****" {
		t.Fatalf("redact mismatch: %q", got)
	}
	if got := Redact("abc"); got != "****" {
		t.Fatalf("short redact mismatch: %q", got)
	}
}
