package wizard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"consular/internal/apiclient"
	"consular/internal/catalog"
	"consular/internal/domain"
	"consular/pkg/errors"

	"github.com/google/uuid"
)

type State string

const (
	StateActive    State = "active"
	StateSubmitted State = "submitted"
)

// Submitter hands a finished application to the portal service.
type Submitter interface {
	SubmitPassport(ctx context.Context, payload *apiclient.Multipart) apiclient.Result[domain.SubmissionReceipt]
}

// FeeQuoter prices the passport selection made on the service step.
type FeeQuoter interface {
	Quote(pt domain.PassportType, speed domain.ProcessingSpeed) (catalog.Quote, error)
}

// SubmitOutcome reports where a submission attempt left the session.
type SubmitOutcome struct {
	Step       int                       `json:"step"`
	State      State                     `json:"state"`
	Validation StepResult                `json:"validation"`
	Failure    *apiclient.APIError       `json:"failure,omitempty"`
	Receipt    *domain.SubmissionReceipt `json:"receipt,omitempty"`
}

// Session is one applicant's pass through the wizard. It owns the draft, the error
// map, the touched set and the position; nothing is shared between sessions.
// Methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id    uuid.UUID
	rules *Rules
	fees  FeeQuoter

	draft    *domain.ApplicationDraft
	errors   ErrorMap
	touched  map[domain.FieldID]bool
	position int
	state    State

	lastFailure *apiclient.APIError
	receipt     *domain.SubmissionReceipt

	createdAt time.Time
	updatedAt time.Time

	// activity mirrors updatedAt in unix nanoseconds so the store can read it
	// while a submission holds mu.
	activity atomic.Int64
}

// NewSession starts an empty draft on the first step. fees may be nil, in which case
// submissions carry no fee quote.
func NewSession(rules *Rules, fees FeeQuoter) *Session {
	if rules == nil {
		rules = NewRules(nil)
	}
	now := rules.Now()
	s := &Session{
		id:        uuid.New(),
		rules:     rules,
		fees:      fees,
		draft:     &domain.ApplicationDraft{},
		errors:    make(ErrorMap),
		touched:   make(map[domain.FieldID]bool),
		position:  FirstStep,
		state:     StateActive,
		createdAt: now,
		updatedAt: now,
	}
	s.activity.Store(now.UnixNano())
	return s
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnFieldChange stores value, marks the field touched and revalidates that field
// only. Errors on other fields are left as they are, even when this change would
// alter their outcome.
func (s *Session) OnFieldChange(id domain.FieldID, value domain.FieldValue) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return "", errors.ErrAlreadySubmitted
	}
	step, ok := StepOf(id)
	if !ok {
		return "", fmt.Errorf("%w: %q", errors.ErrUnknownField, id)
	}
	if step != s.position {
		return "", fmt.Errorf("%w: %s belongs to step %d, current step is %d",
			errors.ErrFieldNotOnStep, id, step, s.position)
	}

	if err := s.draft.Set(id, s.rules.Normalize(id, value)); err != nil {
		return "", err
	}
	s.touched[id] = true
	s.touch()

	msg := s.rules.check(fieldIndex[id], s.draft)
	if msg == "" {
		delete(s.errors, id)
	} else {
		s.errors[id] = msg
	}
	return msg, nil
}

// Advance moves forward one step when the current step validates. On failure the
// step's errors replace the error map and the failing fields become touched; the
// position does not change. The position never passes the last step.
func (s *Session) Advance() (int, StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return s.position, StepResult{}, errors.ErrAlreadySubmitted
	}
	res := s.gate()
	if res.Valid && s.position < LastStep {
		s.position++
	}
	return s.position, res, nil
}

// Retreat moves back one step without validating. The position never goes below
// the first step.
func (s *Session) Retreat() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return s.position, errors.ErrAlreadySubmitted
	}
	if s.position > FirstStep {
		s.position--
	}
	s.touch()
	return s.position, nil
}

// gate validates the current step and applies the result to the visible state.
func (s *Session) gate() StepResult {
	res := s.rules.ValidateStep(s.position, s.draft)
	s.touch()

	if !res.Valid {
		s.errors = res.Errors.clone()
		for id := range res.Errors {
			s.touched[id] = true
		}
		return res
	}
	for i := range fieldTable {
		if fieldTable[i].step == s.position {
			delete(s.errors, fieldTable[i].id)
		}
	}
	return res
}

// Submit validates the last step like Advance and, when it passes, sends the
// application through sub. A rejected submission keeps the session on the last step
// with the failure recorded. A successful one ends the session: the draft is
// discarded and the receipt kept.
func (s *Session) Submit(ctx context.Context, sub Submitter) (SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSubmitted {
		return s.outcome(StepResult{Valid: true}), errors.ErrAlreadySubmitted
	}
	if s.position != LastStep {
		return s.outcome(StepResult{}), fmt.Errorf("%w: current step is %d", errors.ErrNotOnFinalStep, s.position)
	}

	res := s.gate()
	if !res.Valid {
		return s.outcome(res), errors.ErrStepInvalid
	}

	var quote *catalog.Quote
	if s.fees != nil {
		q, err := s.fees.Quote(s.draft.Service.PassportType, s.draft.Service.ProcessingSpeed)
		if err != nil {
			return s.outcome(res), err
		}
		quote = &q
	}

	payload, err := BuildSubmission(s.draft, quote)
	if err != nil {
		return s.outcome(res), errors.Wrap(err, "build submission")
	}
	s.touch()

	result := sub.SubmitPassport(ctx, payload)
	s.touch()
	if !result.OK() {
		s.lastFailure = result.Err
		return s.outcome(res), fmt.Errorf("%w: %s", errors.ErrSubmissionFailed, result.Err.Code)
	}

	receipt := result.Data
	s.receipt = &receipt
	s.lastFailure = nil
	s.state = StateSubmitted
	s.draft = nil
	s.errors = make(ErrorMap)
	s.touched = make(map[domain.FieldID]bool)
	return s.outcome(res), nil
}

func (s *Session) outcome(res StepResult) SubmitOutcome {
	return SubmitOutcome{
		Step:       s.position,
		State:      s.state,
		Validation: res,
		Failure:    s.lastFailure,
		Receipt:    s.receipt,
	}
}

// VisibleErrors returns the errors of touched fields only.
func (s *Session) VisibleErrors() ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleErrors()
}

func (s *Session) visibleErrors() ErrorMap {
	out := make(ErrorMap)
	for id, msg := range s.errors {
		if s.touched[id] {
			out[id] = msg
		}
	}
	return out
}

// Errors returns every recorded error, touched or not.
func (s *Session) Errors() ErrorMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.clone()
}

func (s *Session) Touched(id domain.FieldID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched[id]
}

// Value reads a field from the draft. After submission every field reads as zero.
func (s *Session) Value(id domain.FieldID) domain.FieldValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return domain.FieldValue{}
	}
	return s.draft.Get(id)
}

// CurrentFields lists the fields of the current step.
func (s *Session) CurrentFields() []FieldInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	return StepFields(s.position, s.draft)
}

func (s *Session) LastFailure() *apiclient.APIError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFailure
}

func (s *Session) Receipt() *domain.SubmissionReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

// Snapshot is a read-only view of a session for renderers.
type Snapshot struct {
	ID          uuid.UUID                 `json:"id"`
	Step        int                       `json:"step"`
	StepTitle   string                    `json:"step_title"`
	TotalSteps  int                       `json:"total_steps"`
	State       State                     `json:"state"`
	Fields      []FieldInfo               `json:"fields,omitempty"`
	Draft       *domain.ApplicationDraft  `json:"draft,omitempty"`
	Errors      ErrorMap                  `json:"errors"`
	Fee         *catalog.Quote            `json:"fee,omitempty"`
	LastFailure *apiclient.APIError       `json:"last_failure,omitempty"`
	Receipt     *domain.SubmissionReceipt `json:"receipt,omitempty"`
	CreatedAt   time.Time                 `json:"created_at"`
	UpdatedAt   time.Time                 `json:"updated_at"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.id,
		Step:        s.position,
		StepTitle:   StepTitle(s.position),
		TotalSteps:  LastStep,
		State:       s.state,
		Errors:      s.visibleErrors(),
		LastFailure: s.lastFailure,
		Receipt:     s.receipt,
		CreatedAt:   s.createdAt,
		UpdatedAt:   s.updatedAt,
	}
	if s.draft != nil {
		draft := *s.draft
		snap.Draft = &draft
		snap.Fields = StepFields(s.position, s.draft)
		if s.fees != nil {
			if q, err := s.fees.Quote(draft.Service.PassportType, draft.Service.ProcessingSpeed); err == nil {
				snap.Fee = &q
			}
		}
	}
	return snap
}

// touch records activity; callers hold mu.
func (s *Session) touch() {
	now := s.rules.Now()
	s.updatedAt = now
	s.activity.Store(now.UnixNano())
}

// lastActivity does not take mu.
func (s *Session) lastActivity() time.Time {
	return time.Unix(0, s.activity.Load())
}
