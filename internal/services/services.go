// package services defines the authenticated [Client] contract for remote music
// services and implements it for the OAuth-backed vendors.
//
// A Client is the opaque per-account network/auth handle one provider owns.
// Concrete wire payloads (catalog endpoints, pagination) belong to the
// individual providers; this package covers identity, credentials, and the
// authentication handshake.
package services

import (
	"context"
	"net/url"

	"github.com/pnavk/gMusic/internal/models"
)

// Client is the per-account handle every provider owns exactly one of.
//
// Identifier is stable across restarts and equals the persisted record id as a
// string. ExtraData is an opaque serialized blob for service-specific state
// (tokens, server addresses) that is persisted alongside the record.
type Client interface {
	Identifier() string
	Service() models.ServiceType

	DeviceID() string
	SetDeviceID(string)

	ExtraData() string
	SetExtraData(string)

	BaseAddress() *url.URL
	CurrentAccount() *models.Account

	// Authenticate performs the full (possibly interactive) authentication
	// handshake. A nil Account with a nil error means the attempt was
	// abandoned by the user; it is not a failure.
	Authenticate(ctx context.Context) (*models.Account, error)

	// RefreshAccount restores or refreshes a previously established session
	// without any interactive step. Returns false when no session can be
	// restored.
	RefreshAccount(ctx context.Context) (bool, error)

	// ResetData clears all client-local state: tokens, account, extra data.
	ResetData()
}

// Prompter supplies the interactive steps of an authentication handshake.
//
// Implementations must honor ctx cancellation; an abandoned prompt returns
// [shared.ErrAuthAbandoned].
type Prompter interface {
	// Text asks the user for a single line of input.
	Text(ctx context.Context, prompt, placeholder string) (string, error)

	// AuthCode drives an authorization-code grant: present authURL to the
	// user and return the code they obtained.
	AuthCode(ctx context.Context, authURL string) (string, error)
}
