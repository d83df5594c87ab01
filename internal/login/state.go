package login

// State is a stage of one account's login.
type State int

const (
	StateInit State = iota
	StateBrowserLaunched
	StateNavigated
	StateIdentifierEntered
	StateCodeRequested
	StateAwaitingCode
	StateCodeEntered
	StateVerified
	StateRedirected
	StateArtifactsExtracted
	StateClosed
	StateAborted
)

var stateNames = [...]string{
	StateInit:               "init",
	StateBrowserLaunched:    "browser-launched",
	StateNavigated:          "navigated",
	StateIdentifierEntered:  "identifier-entered",
	StateCodeRequested:      "code-requested",
	StateAwaitingCode:       "awaiting-code",
	StateCodeEntered:        "code-entered",
	StateVerified:           "verified",
	StateRedirected:         "redirected",
	StateArtifactsExtracted: "artifacts-extracted",
	StateClosed:             "closed",
	StateAborted:            "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateClosed
}
