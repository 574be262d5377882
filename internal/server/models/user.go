// Package models holds the server's account-side persistence DTOs. The
// credential data itself lives in internal/vault; this package only carries
// what the SRP-style authentication flow needs.
package models

import "time"

// User is a registered account. Salt and Verifier implement an SRP-style
// zero-knowledge login: the server never sees the master password, only a
// verifier derived from it client-side.
type User struct {
	ID       string
	UserName string
	Salt     []byte
	Verifier []byte
}

// RefreshToken is a server-stored, single-use refresh token.
type RefreshToken struct {
	Token   string
	UserID  string
	Expires time.Time
}
