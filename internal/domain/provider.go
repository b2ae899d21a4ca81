package domain

import "strings"

// ProviderFamily identifies the generation backend variant a job targets.
// It affects the network endpoint and default model selection.
type ProviderFamily string

const (
	FamilySogni ProviderFamily = "sogni"
	FamilySpark ProviderFamily = "spark"
)

// Network returns the provider network identifier used when connecting.
func (f ProviderFamily) Network() string {
	if f == FamilySpark {
		return "spark"
	}
	return "fast"
}

// TokenType returns the token type tag submitted with generation requests.
func (f ProviderFamily) TokenType() string {
	return string(f)
}

// DetectProviderFamily classifies a job's provider family from its stored
// fields. An explicit tokenType wins; otherwise the token and username are
// checked for a spark marker. The heuristic is isolated here so call sites
// only ever see the enum.
func DetectProviderFamily(job *Job) ProviderFamily {
	if strings.EqualFold(strings.TrimSpace(job.TokenType), string(FamilySpark)) {
		return FamilySpark
	}
	if strings.Contains(strings.ToLower(job.UserToken), "spark") {
		return FamilySpark
	}
	if strings.Contains(strings.ToLower(job.Username), "spark") {
		return FamilySpark
	}
	return FamilySogni
}
