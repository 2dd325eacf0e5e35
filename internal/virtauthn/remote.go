// Package virtauthn drives virtual WebAuthn authenticators for tests. The
// Manager and Authenticator types are thin wrappers over remote stubs; the
// transport that reaches the real test hooks is supplied by the caller.
package virtauthn

import "context"

// Protocol is the client-to-authenticator protocol a virtual device speaks.
type Protocol string

const (
	ProtocolU2F   Protocol = "u2f"
	ProtocolCTAP2 Protocol = "ctap2"
)

// Transport is how the virtual device is attached.
type Transport string

const (
	TransportUSB      Transport = "usb"
	TransportNFC      Transport = "nfc"
	TransportBLE      Transport = "ble"
	TransportCable    Transport = "cable"
	TransportInternal Transport = "internal"
)

// Attachment distinguishes platform from roaming authenticators.
type Attachment string

const (
	AttachmentPlatform      Attachment = "platform"
	AttachmentCrossPlatform Attachment = "cross-platform"
)

// AuthenticatorOptions configures a new virtual authenticator. Zero fields
// take the Manager defaults.
type AuthenticatorOptions struct {
	Protocol            Protocol   `json:"protocol,omitempty"`
	Transport           Transport  `json:"transport,omitempty"`
	Attachment          Attachment `json:"attachment,omitempty"`
	HasResidentKey      *bool      `json:"has_resident_key,omitempty"`
	HasUserVerification *bool      `json:"has_user_verification,omitempty"`
}

// Registration is a credential stored on a virtual authenticator.
type Registration struct {
	PrivateKey           []byte `json:"private_key"`
	KeyHandle            []byte `json:"key_handle"`
	ApplicationParameter []byte `json:"application_parameter"`
	Counter              uint32 `json:"counter"`
}

type CreateAuthenticatorResponse struct {
	Authenticator AuthenticatorRemote
}

type GetAuthenticatorsResponse struct {
	Authenticators []AuthenticatorRemote
}

type RemoveAuthenticatorResponse struct {
	Removed bool
}

type GetUniqueIDResponse struct {
	ID string
}

type GetRegistrationsResponse struct {
	Keys []Registration
}

type AddRegistrationResponse struct {
	Added bool
}

type GetUserPresenceResponse struct {
	Present bool
}

// ManagerRemote is the remote end that owns virtual authenticators.
type ManagerRemote interface {
	CreateAuthenticator(ctx context.Context, opts AuthenticatorOptions) (CreateAuthenticatorResponse, error)
	GetAuthenticators(ctx context.Context) (GetAuthenticatorsResponse, error)
	RemoveAuthenticator(ctx context.Context, id string) (RemoveAuthenticatorResponse, error)
	ClearAuthenticators(ctx context.Context) error
}

// AuthenticatorRemote is the remote end of a single virtual authenticator.
type AuthenticatorRemote interface {
	GetUniqueID(ctx context.Context) (GetUniqueIDResponse, error)
	GetRegistrations(ctx context.Context) (GetRegistrationsResponse, error)
	AddRegistration(ctx context.Context, reg Registration) (AddRegistrationResponse, error)
	ClearRegistrations(ctx context.Context) error
	SetUserPresence(ctx context.Context, present bool) error
	GetUserPresence(ctx context.Context) (GetUserPresenceResponse, error)
}
