package auth

import (
	"errors"
	"sort"
	"strings"

	"github.com/NordCoder/Placement/internal/domain/principal"
)

// Kind is the stable, client facing name of an error category.
type Kind string

const (
	KindValidation            Kind = "validation_error"
	KindInvalidCredentials    Kind = "invalid_credentials"
	KindConflict              Kind = "conflict"
	KindCorruptCredential     Kind = "corrupt_credential"
	KindInvalidRefreshToken   Kind = "invalid_refresh_token"
	KindUnsupportedRole       Kind = "unsupported_role"
	KindNotFound              Kind = "not_found"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindTokenExpired          Kind = "token_expired"
	KindTokenInvalidSignature Kind = "token_invalid_signature"
	KindTokenMalformed        Kind = "token_malformed"
	KindInternal              Kind = "internal"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrConflict              = errors.New("already exists")
	ErrCorruptCredential     = errors.New("stored credential is corrupt")
	ErrInvalidRefreshToken   = errors.New("invalid refresh token")
	ErrUnsupportedRole       = principal.ErrUnsupportedRole
	ErrNotFound              = errors.New("not found")
	ErrStoreUnavailable      = errors.New("store unavailable")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")
)

// ValidationError names the offending fields. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrUnsupportedRole, KindUnsupportedRole},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrCorruptCredential, KindCorruptCredential},
	{ErrInvalidRefreshToken, KindInvalidRefreshToken},
	{ErrTokenExpired, KindTokenExpired},
	{ErrTokenInvalidSignature, KindTokenInvalidSignature},
	{ErrTokenMalformed, KindTokenMalformed},
	{ErrConflict, KindConflict},
	{ErrNotFound, KindNotFound},
	{ErrStoreUnavailable, KindStoreUnavailable},
}

func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
