package providers

import (
	"fmt"

	"ytsum/config"
)

// FromConfig assembles the provider list in the configured order. An
// unknown name is a configuration error rather than a silent skip.
func FromConfig(cfg config.PipelineConfig) ([]Provider, error) {
	quota := NewQuota(cfg.QuotaPerMinute)

	available := map[string]Provider{
		"gumloop":  NewGumloopProvider(cfg.GumloopAPIKey, cfg.GumloopUserID, cfg.GumloopFlowID, cfg.ProviderTimeout, quota),
		"captions": NewCaptionsProvider(cfg.ProviderTimeout, quota),
		"oxylabs":  NewOxylabsProvider(cfg.OxylabsUser, cfg.OxylabsPass, cfg.ProviderTimeout, quota),
		"ytdlp":    NewYTDLPProvider(cfg.YTDLPPath, quota),
	}

	providers := make([]Provider, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		p, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown transcript provider %q", name)
		}
		providers = append(providers, p)
	}

	return providers, nil
}
