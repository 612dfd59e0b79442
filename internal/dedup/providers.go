package dedup

import (
	"strings"

	"mixvault/internal/catalog"
)

// Known providers.
const (
	ProviderYouTube        = "youtube"
	ProviderSoundCloud     = "soundcloud"
	ProviderMixcloud       = "mixcloud"
	Provider1001Tracklists = "1001tracklists"
)

var providerPrefixes = map[string]string{
	ProviderYouTube:        "yt",
	ProviderSoundCloud:     "sc",
	ProviderMixcloud:       "mc",
	Provider1001Tracklists: "1001",
}

var providerPriority = map[string]int{
	Provider1001Tracklists: 3,
	ProviderSoundCloud:     2,
	ProviderMixcloud:       2,
	ProviderYouTube:        1,
}

// KnownProvider reports whether provider belongs to the enumerated set.
func KnownProvider(provider string) bool {
	_, ok := providerPrefixes[normalizeProvider(provider)]
	return ok
}

// ProviderPrefix returns the identifier prefix for provider, or "" when the
// provider is unknown.
func ProviderPrefix(provider string) string {
	return providerPrefixes[normalizeProvider(provider)]
}

// ProviderPriority ranks data sources for scalar merges: tracklist sites
// first, audio platforms next, video platforms last. Unknown providers rank 0.
func ProviderPriority(provider string) int {
	return providerPriority[normalizeProvider(provider)]
}

// NamespacedID prefixes externalID with the provider tag unless it already
// carries one.
func NamespacedID(provider, externalID string) string {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return ""
	}
	prefix := ProviderPrefix(provider)
	if prefix == "" || strings.HasPrefix(externalID, prefix+":") {
		return externalID
	}
	return prefix + ":" + externalID
}

// BuildExternalIDs returns the identifier set for a single provider/id pair.
// The set is empty when either part is missing or the provider is unknown.
func BuildExternalIDs(provider, externalID string) catalog.ExternalIDs {
	provider = normalizeProvider(provider)
	if !KnownProvider(provider) {
		return catalog.ExternalIDs{}
	}
	id := NamespacedID(provider, externalID)
	if id == "" {
		return catalog.ExternalIDs{}
	}
	return catalog.ExternalIDs{provider: id}
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}
