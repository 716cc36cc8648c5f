package lifecycle

import "seasonal-menu/internal/menu"

// Phase names the active lifecycle state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// State is one of Idle, Loading, Success or Failed.
type State interface {
	Phase() Phase
	isState()
}

// Idle shows the form. Nothing is stored.
type Idle struct{}

// Loading waits on the outbound call for Request.
type Loading struct {
	Request menu.Request
}

// Success holds the menu generated for Request.
type Success struct {
	Request  menu.Request
	Response menu.Response
}

// Failed holds the human-readable reason Request could not be served.
type Failed struct {
	Request menu.Request
	Message string
}

func (Idle) Phase() Phase    { return PhaseIdle }
func (Loading) Phase() Phase { return PhaseLoading }
func (Success) Phase() Phase { return PhaseSuccess }
func (Failed) Phase() Phase  { return PhaseError }

func (Idle) isState()    {}
func (Loading) isState() {}
func (Success) isState() {}
func (Failed) isState()  {}

// LastRequest returns the request stored by s, if any.
func LastRequest(s State) (menu.Request, bool) {
	switch st := s.(type) {
	case Loading:
		return st.Request, true
	case Success:
		return st.Request, true
	case Failed:
		return st.Request, true
	default:
		return menu.Request{}, false
	}
}
