package scheduler

import "time"

// ProviderLimits is the static rate configuration for one provider.
// A DailyCap of zero means the provider has no daily ceiling.
type ProviderLimits struct {
	RPM      int
	Cooldown time.Duration
	DailyCap int
}

// DefaultRateTable holds the published free-tier limits of the supported
// providers, kept deliberately conservative.
var DefaultRateTable = map[string]ProviderLimits{
	"gemini":     {RPM: 10, Cooldown: 6 * time.Second, DailyCap: 1000},
	"groq":       {RPM: 25, Cooldown: 3 * time.Second, DailyCap: 10000},
	"mistral":    {RPM: 30, Cooldown: 2 * time.Second},
	"openrouter": {RPM: 15, Cooldown: 5 * time.Second, DailyCap: 200},
}

// DefaultPriority is the order in which providers are tried. Earlier entries
// are preferred whenever they are available.
var DefaultPriority = []string{"gemini", "groq", "mistral", "openrouter"}
