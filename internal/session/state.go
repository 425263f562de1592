package session

// FlowKind tags the single multi-step operation a session is inside.
type FlowKind int

const (
	FlowNone FlowKind = iota
	FlowAwaitUpdateID
	FlowAwaitNewDescription
	FlowAwaitDeleteIDs
	FlowAwaitDeleteConfirm
	FlowAwaitRangeStart
	FlowAwaitRangeEnd
)

// Flow is the pending multi-step operation. Only the fields belonging to the
// kind are populated. Keeping the pending step as one tagged value means a
// session can never be inside two flows at once.
type Flow struct {
	Kind FlowKind

	UpdateID   int64   // FlowAwaitNewDescription: the record being updated
	DeleteIDs  []int64 // FlowAwaitDeleteConfirm: ids awaiting confirmation, ascending
	RangeStart string  // FlowAwaitRangeEnd: the start date already collected
}

// State is one session's conversation state, held across turns.
type State struct {
	City string
	Flow Flow
}
