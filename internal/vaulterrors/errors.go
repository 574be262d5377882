// Package vaulterrors defines shared sentinel errors used across the vault
// merge engine, its storage layers, and its transport. Callers should use
// errors.Is to match these values.
package vaulterrors

import "errors"

var (
	// Merge-engine errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrGroupNotEmpty = errors.New("group not empty")
	ErrCycle         = errors.New("would create a cycle")

	// Service-level errors.
	ErrInternal        = errors.New("internal error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrVersionConflict = errors.New("version conflict")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
