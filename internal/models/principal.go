package models

// PrincipalKind distinguishes registered accounts from anonymous sessions.
type PrincipalKind string

const (
	PrincipalRegistered PrincipalKind = "registered"
	PrincipalAnonymous  PrincipalKind = "anonymous"
)

// Principal is the identity that owns wardrobe items and is subject to the
// upload policy. It is resolved once per request and threaded through calls
// explicitly rather than living in ambient session state.
type Principal struct {
	Kind         PrincipalKind `json:"kind"`
	UserID       string        `json:"user_id,omitempty"`
	SessionToken string        `json:"-"`

	// Unlimited is true only for registered accounts flagged as verified
	// clients; those bypass the per-category upload cap.
	Unlimited bool `json:"unlimited"`
}

// RegisteredPrincipal builds a principal for an authenticated account.
func RegisteredPrincipal(userID string, verified bool) Principal {
	return Principal{Kind: PrincipalRegistered, UserID: userID, Unlimited: verified}
}

// AnonymousPrincipal builds a principal for a browser session token.
func AnonymousPrincipal(token string) Principal {
	return Principal{Kind: PrincipalAnonymous, SessionToken: token}
}
