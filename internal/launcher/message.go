package launcher

// TrustedSenderID is the only external sender allowed to use the control
// channel. It is the id of the test extension driving the app.
const TrustedSenderID = "behllobkkfkfnphdnhnkndlbkcpglgmj"

// Action tags an external control message.
type Action string

const (
	// ActionSetWindowCreatedCallback registers the responder to be called
	// once the window has been created.
	ActionSetWindowCreatedCallback Action = "SET_WINDOW_CREATED_CALLBACK"
)

// Message is an external control message.
type Message struct {
	Action Action `json:"action"`
}

// Sender identifies who sent a Message.
type Sender struct {
	ID string `json:"id"`
}

// Disposition tells the transport what to do with the message channel.
type Disposition int

const (
	// Handled means no response will follow; the channel may close now.
	Handled Disposition = iota
	// ResponsePending means the responder was kept and will be called
	// later; the channel must stay open.
	ResponsePending
)

func (d Disposition) String() string {
	switch d {
	case Handled:
		return "handled"
	case ResponsePending:
		return "response_pending"
	default:
		return "unknown"
	}
}
