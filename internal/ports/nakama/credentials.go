package nakama

import (
	"encoding/json"
	"os"
	"sync"
)

const defaultCredentialsPath = "data/credentials.json"

var (
	credentialsOnce sync.Once
	credentialPairs map[string]string
)

// loadCredentials reads the identity to secret map once. A missing or
// unreadable file disables the gate so development setups keep open custom
// auth.
func loadCredentials(path string) map[string]string {
	credentialsOnce.Do(func() {
		if path == "" {
			path = defaultCredentialsPath
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return
		}
		pairs := make(map[string]string)
		if err := json.Unmarshal(raw, &pairs); err != nil {
			return
		}
		credentialPairs = pairs
	})
	return credentialPairs
}

// credentialAllowed checks an identity and its presented secret against the
// loaded pairs. A nil map means the gate is disabled and everyone passes.
func credentialAllowed(pairs map[string]string, id, secret string) bool {
	if pairs == nil {
		return true
	}
	want, ok := pairs[id]
	return ok && secret == want
}
