package virtauthn

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"errors"
	"testing"
)

// recordingManager captures the options passed to the remote.
type recordingManager struct {
	*MemoryManager
	got []AuthenticatorOptions
	err error
}

func (r *recordingManager) CreateAuthenticator(ctx context.Context, opts AuthenticatorOptions) (CreateAuthenticatorResponse, error) {
	r.got = append(r.got, opts)
	if r.err != nil {
		return CreateAuthenticatorResponse{}, r.err
	}
	return r.MemoryManager.CreateAuthenticator(ctx, opts)
}

func TestCreateAuthenticator_MergesDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   AuthenticatorOptions
		want AuthenticatorOptions
	}{
		{
			name: "empty",
			in:   AuthenticatorOptions{},
			want: DefaultOptions(),
		},
		{
			name: "override protocol and resident key",
			in: AuthenticatorOptions{
				Protocol:       ProtocolU2F,
				HasResidentKey: Bool(false),
			},
			want: AuthenticatorOptions{
				Protocol:            ProtocolU2F,
				Transport:           TransportUSB,
				Attachment:          AttachmentCrossPlatform,
				HasResidentKey:      Bool(false),
				HasUserVerification: Bool(true),
			},
		},
		{
			name: "platform authenticator",
			in: AuthenticatorOptions{
				Transport:           TransportInternal,
				Attachment:          AttachmentPlatform,
				HasUserVerification: Bool(false),
			},
			want: AuthenticatorOptions{
				Protocol:            ProtocolCTAP2,
				Transport:           TransportInternal,
				Attachment:          AttachmentPlatform,
				HasResidentKey:      Bool(true),
				HasUserVerification: Bool(false),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &recordingManager{MemoryManager: NewMemoryManager()}
			m := NewManager(remote)

			if _, err := m.CreateAuthenticator(context.Background(), tt.in); err != nil {
				t.Fatalf("CreateAuthenticator: %v", err)
			}
			if len(remote.got) != 1 {
				t.Fatalf("remote called %d times", len(remote.got))
			}
			assertOptions(t, remote.got[0], tt.want)
		})
	}
}

func assertOptions(t *testing.T, got, want AuthenticatorOptions) {
	t.Helper()
	if got.Protocol != want.Protocol || got.Transport != want.Transport || got.Attachment != want.Attachment {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
	if got.HasResidentKey == nil || *got.HasResidentKey != *want.HasResidentKey {
		t.Fatalf("has_resident_key = %v, want %v", got.HasResidentKey, *want.HasResidentKey)
	}
	if got.HasUserVerification == nil || *got.HasUserVerification != *want.HasUserVerification {
		t.Fatalf("has_user_verification = %v, want %v", got.HasUserVerification, *want.HasUserVerification)
	}
}

func TestCreateAuthenticator_RemoteError(t *testing.T) {
	boom := errors.New("pipe closed")
	m := NewManager(&recordingManager{MemoryManager: NewMemoryManager(), err: boom})

	_, err := m.CreateAuthenticator(context.Background(), AuthenticatorOptions{})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestCreateAuthenticator_RejectsUnknownProtocol(t *testing.T) {
	m := NewManager(NewMemoryManager())
	if _, err := m.CreateAuthenticator(context.Background(), AuthenticatorOptions{Protocol: "fido3"}); err == nil {
		t.Fatal("expected error for unknown protocol")
	}
}

func TestManager_ListRemoveClear(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryManager())

	first, err := m.CreateAuthenticator(ctx, AuthenticatorOptions{})
	if err != nil {
		t.Fatalf("CreateAuthenticator: %v", err)
	}
	if _, err := m.CreateAuthenticator(ctx, AuthenticatorOptions{}); err != nil {
		t.Fatalf("CreateAuthenticator: %v", err)
	}

	all, err := m.Authenticators(ctx)
	if err != nil {
		t.Fatalf("Authenticators: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d authenticators, want 2", len(all))
	}

	id, err := first.ID(ctx)
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	uid, _ := first.UniqueID(ctx)
	if id == "" || id != uid {
		t.Fatalf("id = %q, unique id = %q", id, uid)
	}

	removed, err := m.RemoveAuthenticator(ctx, id)
	if err != nil || !removed {
		t.Fatalf("RemoveAuthenticator = %v, %v", removed, err)
	}
	removed, err = m.RemoveAuthenticator(ctx, id)
	if err != nil || removed {
		t.Fatalf("second RemoveAuthenticator = %v, %v", removed, err)
	}

	if err := m.ClearAuthenticators(ctx); err != nil {
		t.Fatalf("ClearAuthenticators: %v", err)
	}
	all, _ = m.Authenticators(ctx)
	if len(all) != 0 {
		t.Fatalf("got %d authenticators after clear", len(all))
	}
}

func TestGenerateAndRegisterKey(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryManager())
	a, err := m.CreateAuthenticator(ctx, AuthenticatorOptions{})
	if err != nil {
		t.Fatalf("CreateAuthenticator: %v", err)
	}

	handle := []byte{1, 2, 3, 4}
	added, err := a.GenerateAndRegisterKey(ctx, handle, "example.test")
	if err != nil || !added {
		t.Fatalf("GenerateAndRegisterKey = %v, %v", added, err)
	}

	keys, err := a.RegisteredKeys(ctx)
	if err != nil {
		t.Fatalf("RegisteredKeys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	reg := keys[0]

	if !bytes.Equal(reg.KeyHandle, handle) {
		t.Fatalf("key handle = %x", reg.KeyHandle)
	}
	want := sha256.Sum256([]byte("example.test"))
	if !bytes.Equal(reg.ApplicationParameter, want[:]) {
		t.Fatalf("application parameter = %x, want %x", reg.ApplicationParameter, want)
	}
	if reg.Counter != 1 {
		t.Fatalf("counter = %d, want 1", reg.Counter)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(reg.PrivateKey)
	if err != nil {
		t.Fatalf("private key is not PKCS#8: %v", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok || key.Curve != elliptic.P256() {
		t.Fatalf("private key = %T, want P-256 ECDSA", parsed)
	}

	// Same handle again is refused by the authenticator.
	added, err = a.GenerateAndRegisterKey(ctx, handle, "example.test")
	if err != nil || added {
		t.Fatalf("duplicate GenerateAndRegisterKey = %v, %v", added, err)
	}

	if err := a.ClearRegisteredKeys(ctx); err != nil {
		t.Fatalf("ClearRegisteredKeys: %v", err)
	}
	keys, _ = a.RegisteredKeys(ctx)
	if len(keys) != 0 {
		t.Fatalf("got %d keys after clear", len(keys))
	}
}

func TestUserPresence(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryManager())
	a, err := m.CreateAuthenticator(ctx, AuthenticatorOptions{})
	if err != nil {
		t.Fatalf("CreateAuthenticator: %v", err)
	}

	present, err := a.UserPresence(ctx)
	if err != nil || !present {
		t.Fatalf("initial UserPresence = %v, %v", present, err)
	}
	if err := a.SetUserPresence(ctx, false); err != nil {
		t.Fatalf("SetUserPresence: %v", err)
	}
	present, err = a.UserPresence(ctx)
	if err != nil || present {
		t.Fatalf("UserPresence = %v, %v, want false", present, err)
	}
}

func TestMemoryAuthenticator_RejectsMalformedRegistration(t *testing.T) {
	ctx := context.Background()
	resp, err := NewMemoryManager().CreateAuthenticator(ctx, AuthenticatorOptions{})
	if err != nil {
		t.Fatalf("CreateAuthenticator: %v", err)
	}

	good, err := NewRegistration([]byte{9}, "example.test")
	if err != nil {
		t.Fatalf("NewRegistration: %v", err)
	}

	shortParam := good
	shortParam.ApplicationParameter = []byte{1, 2}
	badKey := good
	badKey.PrivateKey = []byte("not a key")

	for name, reg := range map[string]Registration{"short parameter": shortParam, "bad key": badKey} {
		added, err := resp.Authenticator.AddRegistration(ctx, reg)
		if err != nil || added.Added {
			t.Fatalf("%s: AddRegistration = %+v, %v", name, added, err)
		}
	}
}
