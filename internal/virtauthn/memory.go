package virtauthn

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryManager is an in-process ManagerRemote. Authenticators get random
// UUIDs and keep their registrations in memory.
type MemoryManager struct {
	mu             sync.Mutex
	authenticators []*MemoryAuthenticator
}

var _ ManagerRemote = (*MemoryManager)(nil)

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{}
}

func (m *MemoryManager) CreateAuthenticator(ctx context.Context, opts AuthenticatorOptions) (CreateAuthenticatorResponse, error) {
	if err := ctx.Err(); err != nil {
		return CreateAuthenticatorResponse{}, err
	}
	if err := validateOptions(opts); err != nil {
		return CreateAuthenticatorResponse{}, err
	}

	a := &MemoryAuthenticator{
		id:      uuid.NewString(),
		present: true,
	}

	m.mu.Lock()
	m.authenticators = append(m.authenticators, a)
	m.mu.Unlock()

	return CreateAuthenticatorResponse{Authenticator: a}, nil
}

func (m *MemoryManager) GetAuthenticators(ctx context.Context) (GetAuthenticatorsResponse, error) {
	if err := ctx.Err(); err != nil {
		return GetAuthenticatorsResponse{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AuthenticatorRemote, 0, len(m.authenticators))
	for _, a := range m.authenticators {
		out = append(out, a)
	}
	return GetAuthenticatorsResponse{Authenticators: out}, nil
}

func (m *MemoryManager) RemoveAuthenticator(ctx context.Context, id string) (RemoveAuthenticatorResponse, error) {
	if err := ctx.Err(); err != nil {
		return RemoveAuthenticatorResponse{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.authenticators {
		if a.id == id {
			m.authenticators = append(m.authenticators[:i], m.authenticators[i+1:]...)
			return RemoveAuthenticatorResponse{Removed: true}, nil
		}
	}
	return RemoveAuthenticatorResponse{}, nil
}

func (m *MemoryManager) ClearAuthenticators(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.authenticators = nil
	return nil
}

// MemoryAuthenticator is the AuthenticatorRemote handed out by MemoryManager.
type MemoryAuthenticator struct {
	id string

	mu            sync.Mutex
	registrations []Registration
	present       bool
}

var _ AuthenticatorRemote = (*MemoryAuthenticator)(nil)

func (a *MemoryAuthenticator) GetUniqueID(ctx context.Context) (GetUniqueIDResponse, error) {
	if err := ctx.Err(); err != nil {
		return GetUniqueIDResponse{}, err
	}
	return GetUniqueIDResponse{ID: a.id}, nil
}

func (a *MemoryAuthenticator) GetRegistrations(ctx context.Context) (GetRegistrationsResponse, error) {
	if err := ctx.Err(); err != nil {
		return GetRegistrationsResponse{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]Registration, len(a.registrations))
	copy(keys, a.registrations)
	return GetRegistrationsResponse{Keys: keys}, nil
}

// AddRegistration rejects duplicate key handles, application parameters that
// are not SHA-256 sized and private keys that are not PKCS#8.
func (a *MemoryAuthenticator) AddRegistration(ctx context.Context, reg Registration) (AddRegistrationResponse, error) {
	if err := ctx.Err(); err != nil {
		return AddRegistrationResponse{}, err
	}
	if len(reg.ApplicationParameter) != 32 {
		return AddRegistrationResponse{}, nil
	}
	if _, err := x509.ParsePKCS8PrivateKey(reg.PrivateKey); err != nil {
		return AddRegistrationResponse{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.registrations {
		if bytes.Equal(existing.KeyHandle, reg.KeyHandle) {
			return AddRegistrationResponse{}, nil
		}
	}
	a.registrations = append(a.registrations, reg)
	return AddRegistrationResponse{Added: true}, nil
}

func (a *MemoryAuthenticator) ClearRegistrations(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registrations = nil
	return nil
}

func (a *MemoryAuthenticator) SetUserPresence(ctx context.Context, present bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.present = present
	return nil
}

func (a *MemoryAuthenticator) GetUserPresence(ctx context.Context) (GetUserPresenceResponse, error) {
	if err := ctx.Err(); err != nil {
		return GetUserPresenceResponse{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return GetUserPresenceResponse{Present: a.present}, nil
}

func validateOptions(opts AuthenticatorOptions) error {
	switch opts.Protocol {
	case "", ProtocolU2F, ProtocolCTAP2:
	default:
		return fmt.Errorf("unknown protocol %q", opts.Protocol)
	}
	switch opts.Transport {
	case "", TransportUSB, TransportNFC, TransportBLE, TransportCable, TransportInternal:
	default:
		return fmt.Errorf("unknown transport %q", opts.Transport)
	}
	switch opts.Attachment {
	case "", AttachmentPlatform, AttachmentCrossPlatform:
	default:
		return fmt.Errorf("unknown attachment %q", opts.Attachment)
	}
	return nil
}
