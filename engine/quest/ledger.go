// Package quest implements the quest ledger: the authoritative store of
// active and completed quests and their requirement counters. Every mutation
// runs under one lock and publishes its notifications to an ordered queue
// before returning, so no caller observes a quest mid-update.
package quest

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/nathoo/parley/engine/events"
	"github.com/nathoo/parley/types"
)

var (
	// ErrQuestNotActive is returned when an operation needs an active quest.
	ErrQuestNotActive = errors.New("quest is not active")
	// ErrRequirementNotFound is returned when a quest has no requirement
	// matching the reported progress.
	ErrRequirementNotFound = errors.New("quest has no matching requirement")
	// ErrNoMatchingRequirement is returned when no active quest is
	// interested in a progress event.
	ErrNoMatchingRequirement = errors.New("no active quest requires this")
)

// InvariantError reports a quest found in both the active and completed
// partitions. Once observed the ledger rejects all further mutations.
type InvariantError struct {
	QuestID string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("quest ledger inconsistent: %q is both active and completed", e.QuestID)
}

// Ledger owns quest instances and their lifecycle.
type Ledger struct {
	mu             sync.Mutex
	active         map[string]*types.Quest
	completed      map[string]*types.Quest
	activeOrder    []string
	completedOrder []string
	subs           *index
	queue          *events.Queue
	log            *log.Logger
	broken         error
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithQueue publishes notifications to q instead of a private queue.
func WithQueue(q *events.Queue) Option {
	return func(l *Ledger) { l.queue = q }
}

// WithLogger sets the logger used for quest lifecycle messages.
func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) { l.log = logger }
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	l := &Ledger{
		active:    map[string]*types.Quest{},
		completed: map[string]*types.Quest{},
		subs:      newIndex(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.queue == nil {
		l.queue = events.NewQueue()
	}
	if l.log == nil {
		l.log = log.New(io.Discard)
	}
	return l
}

// Queue returns the queue notifications are published to.
func (l *Ledger) Queue() *events.Queue { return l.queue }

// Start activates a fresh instance of def. Starting a quest that is already
// active or completed changes nothing and reports false.
func (l *Ledger) Start(def types.QuestDef) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return false, l.broken
	}

	if _, ok := l.active[def.ID]; ok {
		return false, nil
	}
	if _, ok := l.completed[def.ID]; ok {
		l.log.Debug("quest already completed, not restarting", "quest", def.ID)
		return false, nil
	}

	q := &types.Quest{
		ID:           def.ID,
		Name:         def.Name,
		Description:  def.Description,
		Requirements: cloneRequirements(def.Requirements),
		Active:       true,
		Completed:    false,
	}
	for i := range q.Requirements {
		q.Requirements[i].Current = 0
	}
	l.active[q.ID] = q
	l.activeOrder = append(l.activeOrder, q.ID)
	l.subs.add(q)

	l.log.Info("quest started", "quest", q.ID, "name", q.Name)
	l.queue.Publish(types.QuestStarted, clone(q))
	return true, l.verify(q.ID)
}

// RecordProgress increments the matching requirement of every active quest
// interested in (kind, targetID) and completes those now satisfied.
// eventKey labels the source of the event in logs. It returns how many quests
// advanced, or ErrNoMatchingRequirement when none did.
func (l *Ledger) RecordProgress(eventKey, targetID string, kind types.RequirementKind) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return 0, l.broken
	}

	ids := l.subs.lookup(kind, targetID)
	advanced := 0
	for _, id := range ids {
		q, ok := l.active[id]
		if !ok {
			continue
		}
		if !l.advance(q, kind, targetID, eventKey) {
			continue
		}
		advanced++
		if err := l.verify(id); err != nil {
			return advanced, err
		}
	}
	if advanced == 0 {
		return 0, fmt.Errorf("%w: %s %q", ErrNoMatchingRequirement, kind, targetID)
	}
	return advanced, nil
}

// RecordQuestProgress advances a single quest.
func (l *Ledger) RecordQuestProgress(questID, targetID string, kind types.RequirementKind) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return l.broken
	}

	q, ok := l.active[questID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrQuestNotActive, questID)
	}
	if !l.advance(q, kind, targetID, "quest:"+questID) {
		return fmt.Errorf("%w: %q has no %s %q", ErrRequirementNotFound, questID, kind, targetID)
	}
	return l.verify(questID)
}

// ForceComplete completes an active quest regardless of its counters.
func (l *Ledger) ForceComplete(questID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return l.broken
	}

	q, ok := l.active[questID]
	if !ok {
		l.log.Warn("cannot complete quest that is not active", "quest", questID)
		return fmt.Errorf("%w: %q", ErrQuestNotActive, questID)
	}
	l.complete(q)
	return l.verify(questID)
}

// IsActive reports whether the quest is in the active partition.
func (l *Ledger) IsActive(questID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.active[questID]
	return ok
}

// IsCompleted reports whether the quest is in the completed partition.
func (l *Ledger) IsCompleted(questID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.completed[questID]
	return ok
}

// Get returns a copy of the quest from either partition.
func (l *Ledger) Get(questID string) (types.Quest, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if q, ok := l.active[questID]; ok {
		return clone(q), true
	}
	if q, ok := l.completed[questID]; ok {
		return clone(q), true
	}
	return types.Quest{}, false
}

// Active returns copies of the active quests in start order.
func (l *Ledger) Active() []types.Quest {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Quest, 0, len(l.activeOrder))
	for _, id := range l.activeOrder {
		out = append(out, clone(l.active[id]))
	}
	return out
}

// Completed returns copies of the completed quests in completion order.
func (l *Ledger) Completed() []types.Quest {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]types.Quest, 0, len(l.completedOrder))
	for _, id := range l.completedOrder {
		out = append(out, clone(l.completed[id]))
	}
	return out
}

// Verify checks the partition invariant across every quest.
func (l *Ledger) Verify() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken != nil {
		return l.broken
	}
	for id := range l.active {
		if err := l.verify(id); err != nil {
			return err
		}
	}
	return nil
}

// Restore replaces the ledger contents with the given quests, which must
// carry Active or Completed. No notifications are published and pending ones
// are left untouched.
func (l *Ledger) Restore(quests []types.Quest) error {
	active := map[string]*types.Quest{}
	completed := map[string]*types.Quest{}
	var activeOrder, completedOrder []string
	subs := newIndex()

	for _, in := range quests {
		q := clone(&in)
		switch {
		case q.Active && q.Completed:
			return &InvariantError{QuestID: q.ID}
		case q.Active:
			if _, dup := active[q.ID]; dup {
				return fmt.Errorf("restore: duplicate quest %q", q.ID)
			}
			active[q.ID] = &q
			activeOrder = append(activeOrder, q.ID)
			subs.add(&q)
		case q.Completed:
			if _, dup := completed[q.ID]; dup {
				return fmt.Errorf("restore: duplicate quest %q", q.ID)
			}
			completed[q.ID] = &q
			completedOrder = append(completedOrder, q.ID)
		default:
			return fmt.Errorf("restore: quest %q is neither active nor completed", q.ID)
		}
	}
	for id := range active {
		if _, ok := completed[id]; ok {
			return &InvariantError{QuestID: id}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.active, l.completed = active, completed
	l.activeOrder, l.completedOrder = activeOrder, completedOrder
	l.subs = subs
	l.broken = nil
	l.log.Debug("ledger restored", "active", len(active), "completed", len(completed))
	return nil
}

// advance bumps the first unsatisfied requirement matching (kind, target),
// falling back to the first match. Caller holds the lock.
func (l *Ledger) advance(q *types.Quest, kind types.RequirementKind, targetID, eventKey string) bool {
	match := -1
	for i, r := range q.Requirements {
		if r.Kind != kind || r.TargetID != targetID {
			continue
		}
		if match < 0 {
			match = i
		}
		if !Satisfied(r) {
			match = i
			break
		}
	}
	if match < 0 {
		return false
	}

	r := &q.Requirements[match]
	r.Current++
	l.log.Debug("quest progress", "quest", q.ID, "event", eventKey,
		"target", r.TargetID, "current", r.Current, "required", r.Required)
	l.queue.Publish(types.QuestProgressUpdated, clone(q))

	if AllSatisfied(*q) {
		l.complete(q)
	}
	return true
}

// complete is the only path that moves a quest between partitions.
// Caller holds the lock.
func (l *Ledger) complete(q *types.Quest) {
	delete(l.active, q.ID)
	l.activeOrder = removeID(l.activeOrder, q.ID)
	l.subs.remove(q)

	q.Active = false
	q.Completed = true
	l.completed[q.ID] = q
	l.completedOrder = append(l.completedOrder, q.ID)

	l.log.Info("quest completed", "quest", q.ID, "name", q.Name)
	l.queue.Publish(types.QuestCompleted, clone(q))
}

// verify checks one quest's membership. Caller holds the lock.
func (l *Ledger) verify(questID string) error {
	_, inActive := l.active[questID]
	_, inCompleted := l.completed[questID]
	if inActive && inCompleted {
		l.broken = &InvariantError{QuestID: questID}
		l.log.Error("quest ledger invariant violated", "quest", questID)
		return l.broken
	}
	return nil
}

func clone(q *types.Quest) types.Quest {
	out := *q
	out.Requirements = cloneRequirements(q.Requirements)
	return out
}

func cloneRequirements(in []types.Requirement) []types.Requirement {
	if in == nil {
		return nil
	}
	out := make([]types.Requirement, len(in))
	copy(out, in)
	return out
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
