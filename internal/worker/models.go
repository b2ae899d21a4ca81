package worker

import (
	"worker/internal/domain"
	"worker/internal/providers/sogni"
)

const (
	sparkDefaultModel  = "flux1-schnell-fp8"
	sparkFallbackModel = "coreml-sogniXLturbo_alpha1_ad"
	sogniDefaultModel  = "coreml-sogni_artist_v1_768"
)

// SelectModel picks the model for a job. An explicit choice wins over the
// family default, but any choice absent from the available set falls back
// to the family fallback model. Selection is deterministic for a given
// job and model set.
func SelectModel(family domain.ProviderFamily, explicit string, available []sogni.Model) string {
	selected := explicit
	if selected == "" {
		if family == domain.FamilySpark {
			selected = sparkDefaultModel
		} else {
			selected = sogniDefaultModel
		}
	}
	for _, m := range available {
		if m.ID == selected {
			return selected
		}
	}
	if family == domain.FamilySpark {
		return sparkFallbackModel
	}
	return sogniDefaultModel
}
