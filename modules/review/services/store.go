// Package services holds the client store: the last-fetched positions and
// task-review collections, one status slot per operation, and the review
// submission flow.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/taskdesk/modules/review/domain"
	"github.com/iota-uz/taskdesk/modules/review/infrastructure/api"
	"github.com/iota-uz/taskdesk/pkg/eventbus"
	"github.com/iota-uz/taskdesk/pkg/serrors"
)

type Operation string

const (
	OpFetchPositions         Operation = api.OpListPositions
	OpFetchSupervisors       Operation = api.OpListSupervisors
	OpFetchHierarchy         Operation = api.OpPositionHierarchy
	OpCreatePosition         Operation = api.OpCreatePosition
	OpUpdatePosition         Operation = api.OpUpdatePosition
	OpDeletePosition         Operation = api.OpDeletePosition
	OpFetchPosition          Operation = api.OpGetPosition
	OpFetchTeamTasks         Operation = api.OpTeamTasks
	OpFetchHierarchicalTasks Operation = api.OpHierarchicalTasks
	OpFetchTeamMembers       Operation = api.OpTeamMembers
	OpFetchAdminDailyTasks   Operation = api.OpAdminDailyTasks
	OpFetchTeamsDailyTasks   Operation = api.OpTeamsDailyTasks
	OpSubmitReview           Operation = api.OpSubmitReview
	OpFetchUserReport        Operation = api.OpUserTaskReport
	OpFetchFurtherReview     Operation = api.OpFurtherReviewQueue
)

// Operations lists every slot in a stable order.
var Operations = []Operation{
	OpFetchPositions, OpFetchSupervisors, OpFetchHierarchy,
	OpCreatePosition, OpUpdatePosition, OpDeletePosition, OpFetchPosition,
	OpFetchTeamTasks, OpFetchHierarchicalTasks, OpFetchTeamMembers,
	OpFetchAdminDailyTasks, OpFetchTeamsDailyTasks, OpSubmitReview,
	OpFetchUserReport, OpFetchFurtherReview,
}

// mutations are not fenced: every completed write is applied in the order
// its result arrives.
var mutations = map[Operation]bool{
	OpCreatePosition: true,
	OpUpdatePosition: true,
	OpDeletePosition: true,
	OpSubmitReview:   true,
}

var successMessages = map[Operation]string{
	OpCreatePosition: "Position created successfully",
	OpUpdatePosition: "Position updated successfully",
	OpDeletePosition: "Position deleted successfully",
	OpSubmitReview:   "Review submitted successfully",
}

// ErrSuperseded is returned by a fetch whose result arrived after a newer fetch
// for the same operation was issued; the result is discarded.
var ErrSuperseded = serrors.NewError("REQUEST_SUPERSEDED", "superseded by a newer request", "")

// OpState is the status of one operation. Loading and a non-empty Error are
// never observed together.
type OpState struct {
	Loading bool
	Error   string
}

type PositionsState struct {
	Items       []domain.Position
	Supervisors []domain.Position
	Hierarchy   []domain.PositionNode
	Selected    *domain.Position
}

type TaskReviewState struct {
	TeamTasks       []domain.MemberSubmissions
	TeamPagination  domain.Pagination
	Hierarchical    domain.HierarchicalReviews
	Members         []domain.Member
	AdminDaily      []domain.AdminMemberTasks
	AdminPagination domain.Pagination
	TeamsDaily      []domain.TeamDailyTasks
	FurtherReview   []domain.Task
	UserReport      *domain.UserTaskReport
	SelectedTask    *domain.Task
	Filters         domain.Filters
}

// Snapshot is a read-only view of the store. Collections are never mutated in
// place, so a snapshot stays valid after later updates.
type Snapshot struct {
	Positions  PositionsState
	TaskReview TaskReviewState
	Ops        map[Operation]OpState
}

// Backend is the fetch/mutation layer the store drives. *api.Client implements it.
type Backend interface {
	ListPositions(ctx context.Context, sess domain.Session) ([]domain.Position, error)
	ListSupervisors(ctx context.Context, sess domain.Session) ([]domain.Position, error)
	PositionHierarchy(ctx context.Context, sess domain.Session) ([]domain.PositionNode, error)
	CreatePosition(ctx context.Context, sess domain.Session, in domain.PositionInput) (domain.Position, error)
	UpdatePosition(ctx context.Context, sess domain.Session, id domain.ID, current, edited domain.PositionInput) (domain.Position, error)
	DeletePosition(ctx context.Context, sess domain.Session, id domain.ID) error
	GetPosition(ctx context.Context, sess domain.Session, id domain.ID) (domain.Position, error)
	TeamTasks(ctx context.Context, sess domain.Session, p api.TeamTasksParams) (api.TeamTasksPage, error)
	HierarchicalTasks(ctx context.Context, sess domain.Session, supervisorID domain.ID, filters domain.Filters) (domain.HierarchicalReviews, error)
	TeamMembers(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Member, error)
	AdminDailyTasks(ctx context.Context, sess domain.Session, p api.AdminDailyParams) (api.AdminDailyPage, error)
	TeamsDailyTasks(ctx context.Context, sess domain.Session, p api.TeamsDailyParams) ([]domain.TeamDailyTasks, error)
	SubmitReview(ctx context.Context, sess domain.Session, taskID domain.ID, req api.ReviewRequest) (*domain.Task, error)
	UserTaskReport(ctx context.Context, sess domain.Session, p api.UserReportParams) (domain.UserTaskReport, error)
	FurtherReviewQueue(ctx context.Context, sess domain.Session, supervisorID domain.ID) ([]domain.Task, error)
}

var _ Backend = (*api.Client)(nil)

type slot struct {
	state    OpState
	gen      uint64
	inflight int
}

type Store struct {
	backend Backend
	bus     eventbus.EventBus
	log     *logrus.Logger
	now     func() time.Time

	mu        sync.Mutex
	positions PositionsState
	review    TaskReviewState
	slots     map[Operation]*slot
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(backend Backend, bus eventbus.EventBus, log *logrus.Logger, opts ...Option) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Store{
		backend: backend,
		bus:     bus,
		log:     log,
		now:     time.Now,
		review:  TaskReviewState{Filters: domain.DefaultFilters()},
		slots:   make(map[Operation]*slot, len(Operations)),
	}
	for _, op := range Operations {
		s.slots[op] = &slot{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	ops := make(map[Operation]OpState, len(s.slots))
	for op, sl := range s.slots {
		ops[op] = sl.state
	}
	return Snapshot{Positions: s.positions, TaskReview: s.review, Ops: ops}
}

func (s *Store) State(op Operation) OpState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.slots[op]; ok {
		return sl.state
	}
	return OpState{}
}

func (s *Store) ClearError(op Operation) {
	s.mu.Lock()
	sl, ok := s.slots[op]
	if ok {
		sl.state.Error = ""
	}
	s.mu.Unlock()
	if ok {
		s.publish(&StateChanged{Operation: op, State: s.State(op)})
	}
}

func (s *Store) publish(event interface{}) {
	if s.bus != nil {
		s.bus.Publish(event)
	}
}

// begin moves op to pending and returns the generation of this call.
func (s *Store) begin(op Operation) uint64 {
	s.mu.Lock()
	sl := s.slots[op]
	sl.gen++
	sl.inflight++
	gen := sl.gen
	sl.state = OpState{Loading: true}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"operation": op, "generation": gen}).Debug("operation pending")
	s.publish(&StateChanged{Operation: op, State: OpState{Loading: true}})
	return gen
}

// settle returns the state of sl once a call has finished with errMsg. A
// mutation slot stays loading while other writes on it are in flight.
func settle(op Operation, sl *slot, errMsg string) OpState {
	if mutations[op] && sl.inflight > 0 {
		return OpState{Loading: true}
	}
	return OpState{Error: errMsg}
}

// run drives one operation through pending and then fulfilled or rejected.
// apply is called with the store lock held and must replace, never mutate,
// the collections it touches. Fetch results from a superseded call are
// dropped; mutation results are always applied.
func run[T any](ctx context.Context, s *Store, op Operation, fetch func(context.Context) (T, error), apply func(T)) (T, error) {
	var zero T
	gen := s.begin(op)
	v, err := fetch(ctx)

	logger := s.log.WithFields(logrus.Fields{"operation": op, "generation": gen})
	s.mu.Lock()
	sl := s.slots[op]
	sl.inflight--
	if !mutations[op] && sl.gen != gen {
		s.mu.Unlock()
		logger.Debug("dropping superseded result")
		return zero, ErrSuperseded
	}
	if err != nil {
		msg := api.Message(err, api.Fallback(string(op)))
		sl.state = settle(op, sl, msg)
		state := sl.state
		s.mu.Unlock()
		logger.WithError(err).Warn("operation rejected")
		s.publish(&StateChanged{Operation: op, State: state})
		s.publish(&Toast{Kind: ToastError, Operation: op, Message: msg})
		return zero, err
	}
	if apply != nil {
		apply(v)
	}
	sl.state = settle(op, sl, "")
	state := sl.state
	s.mu.Unlock()
	logger.Debug("operation fulfilled")
	s.publish(&StateChanged{Operation: op, State: state})
	if msg, ok := successMessages[op]; ok {
		s.publish(&Toast{Kind: ToastSuccess, Operation: op, Message: msg})
	}
	return v, nil
}
