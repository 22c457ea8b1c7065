package orgtree

// Kind classifies a rejected re-parent request.
type Kind string

const (
	KindSelfParenting      Kind = "self_parenting"
	KindNoOpOrAlreadySet   Kind = "already_set"
	KindCyclicReparenting  Kind = "cyclic_reparenting"
	KindCrossTeamReference Kind = "cross_team_reference"
)

// ValidationError is a client error raised before any mutation happens.
type ValidationError struct {
	Kind    Kind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Is matches any ValidationError of the same kind, so the sentinels below
// work with errors.Is regardless of message.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var (
	ErrSelfParenting = &ValidationError{
		Kind:    KindSelfParenting,
		Field:   "member_id",
		Message: "a member cannot be subordinate to themselves",
	}
	ErrAlreadySet = &ValidationError{
		Kind:    KindNoOpOrAlreadySet,
		Field:   "member_id",
		Message: "member is already subordinate to this parent",
	}
	ErrCyclicReparenting = &ValidationError{
		Kind:    KindCyclicReparenting,
		Field:   "parent_id",
		Message: "cannot assign a subordinate as your own superior",
	}
	ErrCrossTeamReference = &ValidationError{
		Kind:    KindCrossTeamReference,
		Field:   "parent_id",
		Message: "member and parent must belong to this team",
	}
)
