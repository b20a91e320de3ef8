package secrets

// StrategyKind selects which authentication strategy handles a login.
// Strategies are dispatched by this enum, not by name.
type StrategyKind int

const (
	StrategyLocal StrategyKind = iota
	StrategyFederated
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyLocal:
		return "local"
	case StrategyFederated:
		return "federated"
	}
	return "unknown"
}

// Status classifies the outcome of a strategy invocation.
type Status int

const (
	// StatusSuccess carries the authenticated user.
	StatusSuccess Status = iota

	// StatusRejected means the credentials were examined and refused.
	StatusRejected

	// StatusError means the attempt could not be completed (store or
	// hasher failure). It must never be collapsed into a rejection.
	StatusError
)

// AuthResult is the transient outcome of one strategy invocation. It is
// never persisted.
type AuthResult struct {
	Status Status
	User   *User  // set when Status is StatusSuccess
	Reason string // set when Status is StatusRejected
	Err    error  // set when Status is StatusError
}

func Success(user *User) AuthResult {
	return AuthResult{Status: StatusSuccess, User: user}
}

func Rejected(reason string) AuthResult {
	return AuthResult{Status: StatusRejected, Reason: reason}
}

func Errored(err error) AuthResult {
	return AuthResult{Status: StatusError, Err: err}
}
