// Copyright 2024 The the-core Authors
// This file is part of the the-core library.

// Package chainerrs enumerates every boundary error the consensus core can
// raise (spec §7). No stringly-typed error crosses a package boundary:
// callers switch on Kind, never on error message text.
package chainerrs

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Kind is a stable, serializable error classifier.
type Kind string

const (
	// Linkage
	UnexpectedHeight Kind = "UNEXPECTED_HEIGHT"
	ParentMismatch   Kind = "PARENT_MISMATCH"
	HashMismatch     Kind = "HASH_MISMATCH"

	// Time
	NonMonotonicTimestamp Kind = "NON_MONOTONIC_TIMESTAMP"
	FutureDrift           Kind = "FUTURE_DRIFT"

	// PoW
	PowInsufficient Kind = "POW_INSUFFICIENT"

	// Atomic coin policy
	Negative      Kind = "NEGATIVE"
	NonAtomic     Kind = "NON_ATOMIC"
	OverMaxSupply Kind = "OVER_MAX_SUPPLY"

	// Accounts / Vaults
	InsufficientFunds  Kind = "INSUFFICIENT_FUNDS"
	VaultExists        Kind = "VAULT_EXISTS"
	VaultUnknown       Kind = "VAULT_UNKNOWN"
	VaultUnderflow     Kind = "VAULT_UNDERFLOW"
	VaultNonemptyDelete Kind = "VAULT_NONEMPTY_DELETE"

	// EU registry
	EuBackingVaultMissing Kind = "EU_BACKING_VAULT_MISSING"
	EuCertExists          Kind = "EU_CERT_EXISTS"
	EuVaultAlreadyBound   Kind = "EU_VAULT_ALREADY_BOUND"
	EuUnknown             Kind = "EU_UNKNOWN"
	EuInvariantViolation  Kind = "EU_INVARIANT_VIOLATION"

	// Split decision outcomes (not hard errors, but share the taxonomy)
	NoPrice             Kind = "NO_PRICE"
	NonPositivePrice    Kind = "NON_POSITIVE_PRICE"
	MinIntervalNotMet   Kind = "MIN_INTERVAL_NOT_MET"
	BelowThreshold      Kind = "BELOW_THRESHOLD"
	ThresholdMet        Kind = "THRESHOLD_MET"

	// Wire
	WireMalformed  Kind = "WIRE_MALFORMED"
	WireUnknownTx  Kind = "WIRE_UNKNOWN_TX"

	// Generic
	InvalidHeight  Kind = "INVALID_HEIGHT"
	InternalOnlyTx Kind = "INTERNAL_ONLY_TX"
)

// Error is the value-bearing error type that crosses every package
// boundary in the core. Fields carries whatever is required to reproduce
// the failure, e.g. {"value": ..., "atomicUnit": ...} for atomic errors.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a fresh *Error with the given fields.
func New(kind Kind, message string, fields map[string]any) *Error {
	return &Error{Kind: kind, Message: message, Fields: fields}
}

// Wrap attaches kind/fields to an existing cause, using cockroachdb/errors
// so the resulting error still satisfies errors.Is/As against cause and
// carries a recorded stack trace for audit logging.
func Wrap(cause error, kind Kind, message string, fields map[string]any) *Error {
	wrapped := errors.WithDetail(errors.Wrap(cause, message), detailString(fields))
	return &Error{Kind: kind, Message: message, Fields: fields, cause: wrapped}
}

func detailString(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	out := ""
	for k, v := range fields {
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, v)
	}
	return out
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
