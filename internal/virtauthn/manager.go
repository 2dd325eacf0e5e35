package virtauthn

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"fmt"
)

// Manager creates and tracks virtual authenticators through a ManagerRemote.
type Manager struct {
	remote ManagerRemote
}

func NewManager(remote ManagerRemote) *Manager {
	return &Manager{remote: remote}
}

// DefaultOptions returns the options used for fields left unset: a CTAP2
// roaming USB key with resident keys and user verification.
func DefaultOptions() AuthenticatorOptions {
	return AuthenticatorOptions{
		Protocol:            ProtocolCTAP2,
		Transport:           TransportUSB,
		Attachment:          AttachmentCrossPlatform,
		HasResidentKey:      Bool(true),
		HasUserVerification: Bool(true),
	}
}

// Bool returns a pointer to v, for the optional AuthenticatorOptions fields.
func Bool(v bool) *bool {
	return &v
}

// WithDefaults fills the unset fields of opts from DefaultOptions.
func (opts AuthenticatorOptions) WithDefaults() AuthenticatorOptions {
	merged := DefaultOptions()
	if opts.Protocol != "" {
		merged.Protocol = opts.Protocol
	}
	if opts.Transport != "" {
		merged.Transport = opts.Transport
	}
	if opts.Attachment != "" {
		merged.Attachment = opts.Attachment
	}
	if opts.HasResidentKey != nil {
		merged.HasResidentKey = Bool(*opts.HasResidentKey)
	}
	if opts.HasUserVerification != nil {
		merged.HasUserVerification = Bool(*opts.HasUserVerification)
	}
	return merged
}

func (m *Manager) CreateAuthenticator(ctx context.Context, opts AuthenticatorOptions) (*Authenticator, error) {
	resp, err := m.remote.CreateAuthenticator(ctx, opts.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("failed to create authenticator: %w", err)
	}
	return newAuthenticator(resp.Authenticator), nil
}

func (m *Manager) Authenticators(ctx context.Context) ([]*Authenticator, error) {
	resp, err := m.remote.GetAuthenticators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list authenticators: %w", err)
	}
	out := make([]*Authenticator, 0, len(resp.Authenticators))
	for _, remote := range resp.Authenticators {
		out = append(out, newAuthenticator(remote))
	}
	return out, nil
}

// RemoveAuthenticator reports whether an authenticator with id existed.
func (m *Manager) RemoveAuthenticator(ctx context.Context, id string) (bool, error) {
	resp, err := m.remote.RemoveAuthenticator(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove authenticator %s: %w", id, err)
	}
	return resp.Removed, nil
}

func (m *Manager) ClearAuthenticators(ctx context.Context) error {
	if err := m.remote.ClearAuthenticators(ctx); err != nil {
		return fmt.Errorf("failed to clear authenticators: %w", err)
	}
	return nil
}

// Authenticator wraps a single AuthenticatorRemote.
type Authenticator struct {
	remote AuthenticatorRemote
}

func newAuthenticator(remote AuthenticatorRemote) *Authenticator {
	return &Authenticator{remote: remote}
}

func (a *Authenticator) UniqueID(ctx context.Context) (string, error) {
	resp, err := a.remote.GetUniqueID(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get authenticator id: %w", err)
	}
	return resp.ID, nil
}

// ID is an alias for UniqueID.
func (a *Authenticator) ID(ctx context.Context) (string, error) {
	return a.UniqueID(ctx)
}

func (a *Authenticator) RegisteredKeys(ctx context.Context) ([]Registration, error) {
	resp, err := a.remote.GetRegistrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get registrations: %w", err)
	}
	return resp.Keys, nil
}

// GenerateAndRegisterKey creates a P-256 credential for rpID under keyHandle
// and stores it on the authenticator with a signature counter of 1. It
// reports whether the authenticator accepted the registration.
func (a *Authenticator) GenerateAndRegisterKey(ctx context.Context, keyHandle []byte, rpID string) (bool, error) {
	reg, err := NewRegistration(keyHandle, rpID)
	if err != nil {
		return false, err
	}
	resp, err := a.remote.AddRegistration(ctx, reg)
	if err != nil {
		return false, fmt.Errorf("failed to add registration: %w", err)
	}
	return resp.Added, nil
}

// NewRegistration generates a fresh P-256 key for rpID. The private key is
// PKCS#8 encoded and the application parameter is SHA-256(rpID).
func NewRegistration(keyHandle []byte, rpID string) (Registration, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return Registration{}, fmt.Errorf("failed to generate key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return Registration{}, fmt.Errorf("failed to export private key: %w", err)
	}
	appParam := sha256.Sum256([]byte(rpID))

	return Registration{
		PrivateKey:           der,
		KeyHandle:            append([]byte(nil), keyHandle...),
		ApplicationParameter: appParam[:],
		Counter:              1,
	}, nil
}

func (a *Authenticator) ClearRegisteredKeys(ctx context.Context) error {
	if err := a.remote.ClearRegistrations(ctx); err != nil {
		return fmt.Errorf("failed to clear registrations: %w", err)
	}
	return nil
}

func (a *Authenticator) SetUserPresence(ctx context.Context, present bool) error {
	if err := a.remote.SetUserPresence(ctx, present); err != nil {
		return fmt.Errorf("failed to set user presence: %w", err)
	}
	return nil
}

func (a *Authenticator) UserPresence(ctx context.Context) (bool, error) {
	resp, err := a.remote.GetUserPresence(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get user presence: %w", err)
	}
	return resp.Present, nil
}
