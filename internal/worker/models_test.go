package worker

import (
	"testing"

	"worker/internal/domain"
	"worker/internal/providers/sogni"
)

func TestSelectModel(t *testing.T) {
	available := []sogni.Model{
		{ID: "flux1-schnell-fp8"},
		{ID: "coreml-sogni_artist_v1_768"},
		{ID: "custom-model"},
	}

	tests := []struct {
		name      string
		family    domain.ProviderFamily
		explicit  string
		available []sogni.Model
		want      string
	}{
		{name: "sogni default available", family: domain.FamilySogni, available: available, want: "coreml-sogni_artist_v1_768"},
		{name: "spark default available", family: domain.FamilySpark, available: available, want: "flux1-schnell-fp8"},
		{name: "explicit available", family: domain.FamilySogni, explicit: "custom-model", available: available, want: "custom-model"},
		{name: "explicit missing falls back sogni", family: domain.FamilySogni, explicit: "gone-model", available: available, want: "coreml-sogni_artist_v1_768"},
		{name: "explicit missing falls back spark", family: domain.FamilySpark, explicit: "gone-model", available: available, want: "coreml-sogniXLturbo_alpha1_ad"},
		{name: "empty model list spark", family: domain.FamilySpark, available: nil, want: "coreml-sogniXLturbo_alpha1_ad"},
		{name: "empty model list sogni", family: domain.FamilySogni, available: nil, want: "coreml-sogni_artist_v1_768"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectModel(tt.family, tt.explicit, tt.available); got != tt.want {
				t.Fatalf("SelectModel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSelectModelDeterministic(t *testing.T) {
	available := []sogni.Model{{ID: "a"}, {ID: "b"}, {ID: "coreml-sogni_artist_v1_768"}}
	first := SelectModel(domain.FamilySogni, "", available)
	for i := 0; i < 10; i++ {
		if got := SelectModel(domain.FamilySogni, "", available); got != first {
			t.Fatalf("selection not deterministic: %q vs %q", got, first)
		}
	}
}
