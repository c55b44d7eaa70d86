package service

import (
	"net/http"
	"strconv"
)

type CredentialKind int

const (
	CredentialNone CredentialKind = iota
	CredentialBearer
	// CredentialUserID is the legacy numeric identity scheme.
	CredentialUserID
)

// Credential authorizes writes against the CMS. The zero value is "no credential".
type Credential struct {
	Kind   CredentialKind
	Token  string
	UserID int64
}

func BearerCredential(token string) Credential {
	if token == "" {
		return Credential{}
	}
	return Credential{Kind: CredentialBearer, Token: token}
}

func UserIDCredential(userID int64) Credential {
	if userID <= 0 {
		return Credential{}
	}
	return Credential{Kind: CredentialUserID, UserID: userID}
}

func (c Credential) Valid() bool {
	switch c.Kind {
	case CredentialBearer:
		return c.Token != ""
	case CredentialUserID:
		return c.UserID > 0
	}
	return false
}

func (c Credential) String() string {
	switch c.Kind {
	case CredentialBearer:
		return "bearer"
	case CredentialUserID:
		return "user_id"
	}
	return "none"
}

// setHeader attaches the credential to an outgoing request.
func (c Credential) setHeader(h http.Header) {
	switch c.Kind {
	case CredentialBearer:
		h.Set("Authorization", "Bearer "+c.Token)
	case CredentialUserID:
		h.Set("X-User-ID", strconv.FormatInt(c.UserID, 10))
	}
}

// extendBody adds the identity field the legacy scheme expects in write bodies.
func (c Credential) extendBody(body map[string]any) {
	if c.Kind == CredentialUserID {
		body["user_id"] = c.UserID
	}
}
