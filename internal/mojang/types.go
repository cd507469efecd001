package mojang

import "sort"

// Profile is a resolved Minecraft identity: the stable account uuid
// (undashed) plus the current display name. Values are fetched fresh on
// every call and never cached.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NameChange is one entry of a profile's name history. ChangedToAt is
// unix milliseconds and absent on the account's original name.
type NameChange struct {
	Name        string `json:"name"`
	ChangedToAt int64  `json:"changedToAt,omitempty"`
}

// CurrentName picks the newest name from a history response. The API
// documents the list oldest→newest; entries carrying a timestamp are
// sorted by it anyway so an out-of-order response cannot select a
// stale name.
func CurrentName(history []NameChange) string {
	if len(history) == 0 {
		return ""
	}
	sorted := make([]NameChange, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChangedToAt < sorted[j].ChangedToAt
	})
	return sorted[len(sorted)-1].Name
}
