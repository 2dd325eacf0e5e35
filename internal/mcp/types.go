package mcp

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// WindowStatusOutput is the output for the launch_window and window_status tools.
type WindowStatusOutput struct {
	DaemonRunning      bool   `json:"daemon_running"`
	UptimeSeconds      int64  `json:"uptime_seconds,omitempty"`
	WindowActive       bool   `json:"window_active"`
	WindowID           uint32 `json:"window_id,omitempty"`
	Launching          bool   `json:"launching"`
	CallbackRegistered bool   `json:"callback_registered"`
}

// PlacementOutput is the output for the get_placement tool.
type PlacementOutput struct {
	Maximized      bool `json:"maximized"`
	Fullscreen     bool `json:"fullscreen"`
	ShouldMaximize bool `json:"should_maximize"`
}

// WindowActionOutput is the output for the show_window and close_window tools.
type WindowActionOutput struct {
	OK bool `json:"ok"`
}

// WaitWindowCreatedInput is the input for the wait_window_created tool.
type WaitWindowCreatedInput struct {
	SenderID string `json:"sender_id,omitempty" jsonschema:"Extension id to register the callback as (default: the trusted test extension)"`
	Timeout  int    `json:"timeout,omitempty" jsonschema:"Timeout in seconds (default: 30)"`
}

// WaitWindowCreatedOutput is the output for the wait_window_created tool.
type WaitWindowCreatedOutput struct {
	Created  bool   `json:"created"`
	SenderID string `json:"sender_id"`
}

// CreateAuthenticatorInput is the input for the create_authenticator tool.
type CreateAuthenticatorInput struct {
	Protocol            string `json:"protocol,omitempty" jsonschema:"u2f or ctap2 (default: ctap2)"`
	Transport           string `json:"transport,omitempty" jsonschema:"usb, nfc, ble, cable or internal (default: usb)"`
	Attachment          string `json:"attachment,omitempty" jsonschema:"platform or cross-platform (default: cross-platform)"`
	HasResidentKey      *bool  `json:"has_resident_key,omitempty" jsonschema:"Support resident keys (default: true)"`
	HasUserVerification *bool  `json:"has_user_verification,omitempty" jsonschema:"Support user verification (default: true)"`
}

// AuthenticatorInfo describes a single virtual authenticator.
type AuthenticatorInfo struct {
	ID          string `json:"id"`
	KeyCount    int    `json:"key_count"`
	UserPresent bool   `json:"user_present"`
}

// ListAuthenticatorsOutput is the output for the list_authenticators tool.
type ListAuthenticatorsOutput struct {
	Authenticators []AuthenticatorInfo `json:"authenticators"`
}

// RemoveAuthenticatorInput is the input for the remove_authenticator tool.
type RemoveAuthenticatorInput struct {
	ID string `json:"id" jsonschema:"required,Authenticator id returned by create_authenticator"`
}

// RemoveAuthenticatorOutput is the output for the remove_authenticator tool.
type RemoveAuthenticatorOutput struct {
	Removed bool `json:"removed"`
}

// RegisterKeyInput is the input for the register_key tool.
type RegisterKeyInput struct {
	AuthenticatorID string `json:"authenticator_id" jsonschema:"required,Authenticator id"`
	KeyHandle       string `json:"key_handle" jsonschema:"required,Credential id, base64url without padding"`
	RPID            string `json:"rp_id" jsonschema:"required,Relying party id, e.g. example.com"`
}

// RegisterKeyOutput is the output for the register_key tool.
type RegisterKeyOutput struct {
	Added    bool `json:"added"`
	KeyCount int  `json:"key_count"`
}

// SetUserPresenceInput is the input for the set_user_presence tool.
type SetUserPresenceInput struct {
	AuthenticatorID string `json:"authenticator_id" jsonschema:"required,Authenticator id"`
	Present         bool   `json:"present" jsonschema:"Whether the simulated user is present"`
}
