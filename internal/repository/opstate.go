package repository

// Phase tags the outcome of the most recent mutating operation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

// OperationState is the tri-state status consumed by the UI for progress and
// error display. Message is set only for PhaseError. Terminal states stay
// until cleared so the UI can observe them exactly once.
type OperationState struct {
	Phase   Phase
	Message string
}

func Idle() OperationState    { return OperationState{Phase: PhaseIdle} }
func Loading() OperationState { return OperationState{Phase: PhaseLoading} }
func Success() OperationState { return OperationState{Phase: PhaseSuccess} }

func Failure(message string) OperationState {
	return OperationState{Phase: PhaseError, Message: message}
}

// Terminal reports whether the state is an outcome rather than idle or
// in-flight.
func (s OperationState) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseError
}

func (s Phase) String() string {
	switch s {
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
