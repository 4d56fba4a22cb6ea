package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Identity is what DecodeMockToken recovers from an auth token: enough to
// address the backend account API and greet the caller by name.
type Identity struct {
	UserID string
	Name   string
}

// claims is the subset of a JWT payload this gateway cares about, matching
// the fields original_source/CXBuddyPro/mock_gxs_api.py's verify_jwt reads
// off the decoded payload.
type claims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Exp  int64  `json:"exp"`
}

// DecodeMockToken recovers an Identity from an opaque bearer token without
// verifying any signature: it base64-decodes the middle segment of a
// dot-separated three-part token (the shape a JWT payload takes) if the
// token looks like one, and otherwise treats the whole string as a user
// id. This performs no cryptographic verification of any kind; the trust
// boundary for token authenticity is the TLS edge in front of the
// gateway, not this function.
func DecodeMockToken(token string) (Identity, bool) {
	if token == "" {
		return Identity{}, false
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return Identity{UserID: token}, true
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// tolerate standard padding, matching the Python side's `+ '=='`
		payload, err = base64.StdEncoding.DecodeString(parts[1] + strings.Repeat("=", (4-len(parts[1])%4)%4))
		if err != nil {
			return Identity{UserID: token}, true
		}
	}

	var c claims
	if err := json.Unmarshal(payload, &c); err != nil {
		return Identity{UserID: token}, true
	}
	if c.Exp != 0 && time.Now().Unix() > c.Exp {
		return Identity{}, false
	}
	if c.Sub == "" {
		return Identity{UserID: token}, true
	}
	return Identity{UserID: c.Sub, Name: c.Name}, true
}
