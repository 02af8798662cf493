package engine

import (
	"formpilot/internal/domain/models/form"
)

// Role identifies the author of a history entry. System directives are
// recorded with RoleUser so they flow to the LLM as instructions.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Entry is one line of conversation history.
type Entry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolResult is a tool invocation result handed back by the host
// application. The engine never executes tools itself.
type ToolResult struct {
	ToolName string                 `json:"tool_name"`
	Result   map[string]interface{} `json:"result"`
}

// State is the per-session record carried between turns. It mutates
// only through the reducer: each turn produces partial updates that
// are merged into a fresh snapshot, so a cancelled turn leaves the
// previous snapshot untouched.
type State struct {
	Definition *form.Definition

	// Accumulated across turns.
	Answers        map[string]interface{}
	History        []Entry
	RequiredFields []string
	RequiredByStep map[int][]string

	// Multi-step progress.
	CurrentStep    int
	MaxStep        int
	CompletedSteps []int

	// Phase tracking.
	InitialExtractionDone    bool
	AwaitingStepConfirmation bool
	AllowAnsweredFieldUpdate bool
	PendingFieldID           string
	PendingActionType        string
	PendingTextValue         string
	PendingTextFieldID       string
	PendingToolName          string

	// Per-turn input, set by Step.
	userMessage string
	toolResults []ToolResult

	// Ephemeral intra-turn fields, cleared at the start of every turn.
	action               *Payload
	parsed               *Payload
	userMessageAdded     bool
	skipConversationTurn bool
}

// NewState creates the initial session state for a parsed form,
// materializing the derived required-field views once.
func NewState(def *form.Definition) *State {
	return &State{
		Definition:     def,
		Answers:        make(map[string]interface{}),
		RequiredFields: def.RequiredFieldIDs(),
		RequiredByStep: def.RequiredByStep(),
		CurrentStep:    1,
		MaxStep:        def.MaxStep(),
	}
}

// StepCompleted reports whether the given step has been confirmed.
func (s *State) StepCompleted(step int) bool {
	for _, c := range s.CompletedSteps {
		if c == step {
			return true
		}
	}
	return false
}

// MissingRequired returns the required field ids not yet answered and
// currently visible, in definition order. A required field hidden by
// its visibility rule is not demanded until the rule passes.
func (s *State) MissingRequired() []string {
	visible := s.visibleSet()
	var missing []string
	for _, id := range s.RequiredFields {
		if _, ok := s.Answers[id]; ok {
			continue
		}
		if !visible[id] {
			continue
		}
		missing = append(missing, id)
	}
	return missing
}

// visibleSet returns the ids of fields visible under the current
// answers.
func (s *State) visibleSet() map[string]bool {
	visible := make(map[string]bool, len(s.Definition.Fields))
	for _, f := range s.Definition.VisibleFields(s.Answers) {
		visible[f.ID] = true
	}
	return visible
}

// clone returns a deep copy of the accumulated state. The turn runs
// against the copy and the original snapshot stays valid until the
// caller swaps it for the new one.
func (s *State) clone() *State {
	next := *s

	next.Answers = make(map[string]interface{}, len(s.Answers))
	for k, v := range s.Answers {
		next.Answers[k] = v
	}
	next.History = append([]Entry(nil), s.History...)
	next.CompletedSteps = append([]int(nil), s.CompletedSteps...)
	// RequiredFields, RequiredByStep, and Definition are immutable for
	// the session's lifetime and may be shared between snapshots.

	return &next
}

// prepareTurn installs the turn input and clears the ephemeral fields.
func (s *State) prepareTurn(userMessage string, toolResults []ToolResult) {
	s.userMessage = userMessage
	s.toolResults = toolResults
	s.action = nil
	s.parsed = nil
	s.userMessageAdded = false
	s.skipConversationTurn = false
	s.AllowAnsweredFieldUpdate = false
}

// update is a partial state change produced by a node. Answers merge,
// History appends, everything else replaces when the pointer is
// non-nil. parsedSet distinguishes "clear parsed" from "leave alone".
type update struct {
	answers map[string]interface{}
	history []Entry

	action    *Payload
	parsed    *Payload
	parsedSet bool

	initialExtractionDone    *bool
	awaitingStepConfirmation *bool
	allowAnsweredFieldUpdate *bool
	userMessageAdded         *bool
	skipConversationTurn     *bool

	pendingFieldID     *string
	pendingActionType  *string
	pendingTextValue   *string
	pendingTextFieldID *string
	pendingToolName    *string

	currentStep    *int
	completedSteps []int
}

// apply merges a partial update into the state.
func (s *State) apply(u update) {
	for k, v := range u.answers {
		s.Answers[k] = v
	}
	s.History = append(s.History, u.history...)

	if u.action != nil {
		s.action = u.action
	}
	if u.parsedSet {
		s.parsed = u.parsed
	}

	if u.initialExtractionDone != nil {
		s.InitialExtractionDone = *u.initialExtractionDone
	}
	if u.awaitingStepConfirmation != nil {
		s.AwaitingStepConfirmation = *u.awaitingStepConfirmation
	}
	if u.allowAnsweredFieldUpdate != nil {
		s.AllowAnsweredFieldUpdate = *u.allowAnsweredFieldUpdate
	}
	if u.userMessageAdded != nil {
		s.userMessageAdded = *u.userMessageAdded
	}
	if u.skipConversationTurn != nil {
		s.skipConversationTurn = *u.skipConversationTurn
	}

	if u.pendingFieldID != nil {
		s.PendingFieldID = *u.pendingFieldID
	}
	if u.pendingActionType != nil {
		s.PendingActionType = *u.pendingActionType
	}
	if u.pendingTextValue != nil {
		s.PendingTextValue = *u.pendingTextValue
	}
	if u.pendingTextFieldID != nil {
		s.PendingTextFieldID = *u.pendingTextFieldID
	}
	if u.pendingToolName != nil {
		s.PendingToolName = *u.pendingToolName
	}

	if u.currentStep != nil {
		s.CurrentStep = *u.currentStep
	}
	if u.completedSteps != nil {
		s.CompletedSteps = u.completedSteps
	}
}

func boolPtr(b bool) *bool { return &b }

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }
