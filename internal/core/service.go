// Package core wires the snapshot store, per-kind repositories, relation
// indices, and the event bus into one transactional service facade.
package core

import (
	"context"
	"strings"
	"time"

	"github.com/swalker2m/gem-odb-api/internal/event"
	"github.com/swalker2m/gem-odb-api/internal/logging"
	"github.com/swalker2m/gem-odb-api/internal/repo"
	"github.com/swalker2m/gem-odb-api/internal/store"
	"github.com/swalker2m/gem-odb-api/pkg/odb"
)

// Service exposes higher-level transactional operations over the observing
// database core. Every mutation runs as one atomic store transition; the
// events describing it publish at the commit point and never before.
type Service struct {
	store *store.Store
	bus   *event.Bus

	programs     *repo.Repo[odb.ProgramID, odb.Program]
	targets      *repo.Repo[odb.TargetID, odb.Target]
	asterisms    *repo.Repo[odb.AsterismID, odb.Asterism]
	observations *repo.Repo[odb.ObservationID, odb.Observation]

	logger      logging.Logger
	metrics     MetricsRecorder
	tracer      Tracer
	nowFn       func() time.Time
	eventBuffer int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger installs a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer installs a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithClock overrides the time source used for operation timing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.nowFn = now
		}
	}
}

// WithEventBuffer sets the per-subscriber event channel capacity.
func WithEventBuffer(n int) Option {
	return func(s *Service) {
		s.eventBuffer = n
	}
}

// NewService constructs a service with an empty in-memory store.
func NewService(opts ...Option) *Service {
	s := &Service{
		logger:      logging.Nop(),
		metrics:     nopMetrics{},
		tracer:      nopTracer{},
		nowFn:       func() time.Time { return time.Now().UTC() },
		eventBuffer: event.DefaultBuffer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bus = event.NewBus(event.WithBuffer(s.eventBuffer), event.WithLogger(s.logger))
	s.store = store.New(s.bus)
	s.programs = repo.New(s.store, programTable())
	s.targets = repo.New(s.store, targetTable())
	s.asterisms = repo.New(s.store, asterismTable())
	s.observations = repo.New(s.store, observationTable())
	return s
}

func programTable() repo.Table[odb.ProgramID, odb.Program] {
	return repo.Table[odb.ProgramID, odb.Program]{
		Kind: odb.EntityProgram,
		Rows: func(t *store.Tables) map[odb.ProgramID]odb.Program { return t.Programs },
		Check: func(p odb.Program) error {
			if strings.TrimSpace(p.Name) == "" {
				return &odb.ValidationError{Problems: []odb.Problem{{Path: "name", Message: "name is required"}}}
			}
			return nil
		},
	}
}

func targetTable() repo.Table[odb.TargetID, odb.Target] {
	return repo.Table[odb.TargetID, odb.Target]{
		Kind: odb.EntityTarget,
		Rows: func(t *store.Tables) map[odb.TargetID]odb.Target { return t.Targets },
		Check: func(t odb.Target) error {
			if strings.TrimSpace(t.Name) == "" {
				return &odb.ValidationError{Problems: []odb.Problem{{Path: "name", Message: "name is required"}}}
			}
			return nil
		},
	}
}

func asterismTable() repo.Table[odb.AsterismID, odb.Asterism] {
	return repo.Table[odb.AsterismID, odb.Asterism]{
		Kind:  odb.EntityAsterism,
		Rows:  func(t *store.Tables) map[odb.AsterismID]odb.Asterism { return t.Asterisms },
		Clone: odb.Asterism.Clone,
	}
}

func observationTable() repo.Table[odb.ObservationID, odb.Observation] {
	return repo.Table[odb.ObservationID, odb.Observation]{
		Kind:  odb.EntityObservation,
		Rows:  func(t *store.Tables) map[odb.ObservationID]odb.Observation { return t.Observations },
		Clone: odb.Observation.Clone,
	}
}

// Store returns the underlying snapshot store.
func (s *Service) Store() *store.Store { return s.store }

// Subscribe opens a live feed of subsequently committed events.
func (s *Service) Subscribe() *event.Subscription { return s.bus.Subscribe() }

// LastEventID returns the most recently assigned event sequence number.
func (s *Service) LastEventID() odb.EventID { return s.bus.LastID() }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) error) error {
	start := s.nowFn()
	ctx, span := s.tracer.Start(ctx, op)
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, s.nowFn().Sub(start))
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", op)
	}
	return err
}

// Programs ------------------------------------------------------------------

// CreateProgram validates and inserts a new program.
func (s *Service) CreateProgram(ctx context.Context, c odb.ProgramCreate) (odb.Program, error) {
	var created odb.Program
	err := s.run(ctx, "create_program", func(ctx context.Context) error {
		if err := c.Validate(); err != nil {
			return err
		}
		var err error
		created, err = s.programs.Insert(ctx, c.ID, func(id odb.ProgramID) (odb.Program, error) {
			return odb.Program{ID: id, Existence: odb.Present, Name: c.Name}, nil
		})
		return err
	})
	return created, err
}

// SelectProgram returns a program by id.
func (s *Service) SelectProgram(ctx context.Context, id odb.ProgramID, includeDeleted bool) (odb.Program, error) {
	return s.programs.SelectByID(ctx, id, includeDeleted)
}

// SelectPrograms returns all programs ordered by id.
func (s *Service) SelectPrograms(ctx context.Context, includeDeleted bool) []odb.Program {
	return s.programs.SelectAll(ctx, includeDeleted)
}

// UpdateProgram edits a program through the provided mutator.
func (s *Service) UpdateProgram(ctx context.Context, id odb.ProgramID, mutator func(*odb.Program) error) (odb.Program, error) {
	var updated odb.Program
	err := s.run(ctx, "update_program", func(ctx context.Context) error {
		var err error
		updated, err = s.programs.Edit(ctx, id, func(p odb.Program) (odb.Program, error) {
			if err := mutator(&p); err != nil {
				return odb.Program{}, err
			}
			return p, nil
		})
		return err
	})
	return updated, err
}

// DeleteProgram soft-deletes a program. Observations and relation edges that
// reference it are left intact.
func (s *Service) DeleteProgram(ctx context.Context, id odb.ProgramID) error {
	return s.run(ctx, "delete_program", func(ctx context.Context) error {
		return s.programs.Delete(ctx, id)
	})
}

// UndeleteProgram restores a soft-deleted program.
func (s *Service) UndeleteProgram(ctx context.Context, id odb.ProgramID) error {
	return s.run(ctx, "undelete_program", func(ctx context.Context) error {
		return s.programs.Undelete(ctx, id)
	})
}

// Targets --------------------------------------------------------------------

// CreateTarget validates and inserts a new target, sharing it with the
// requested programs in the same transition.
func (s *Service) CreateTarget(ctx context.Context, c odb.TargetCreate) (odb.Target, error) {
	var created odb.Target
	err := s.run(ctx, "create_target", func(ctx context.Context) error {
		if err := c.Validate(); err != nil {
			return err
		}
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			for _, pid := range c.ProgramIDs {
				if _, ok := t.Programs[pid]; !ok {
					return odb.ErrNotFound{Entity: odb.EntityProgram, ID: pid.String()}
				}
			}
			var err error
			created, err = s.targets.InsertTx(tx, c.ID, func(id odb.TargetID) (odb.Target, error) {
				return odb.Target{ID: id, Existence: odb.Present, Name: c.Name, Sidereal: c.Sidereal}, nil
			})
			if err != nil {
				return err
			}
			for _, pid := range c.ProgramIDs {
				t.ProgramTargets.Link(pid, created.ID)
			}
			return nil
		})
	})
	return created, err
}

// SelectTarget returns a target by id.
func (s *Service) SelectTarget(ctx context.Context, id odb.TargetID, includeDeleted bool) (odb.Target, error) {
	return s.targets.SelectByID(ctx, id, includeDeleted)
}

// SelectTargets returns all targets ordered by id.
func (s *Service) SelectTargets(ctx context.Context, includeDeleted bool) []odb.Target {
	return s.targets.SelectAll(ctx, includeDeleted)
}

// UpdateTarget edits a target through the provided mutator.
func (s *Service) UpdateTarget(ctx context.Context, id odb.TargetID, mutator func(*odb.Target) error) (odb.Target, error) {
	var updated odb.Target
	err := s.run(ctx, "update_target", func(ctx context.Context) error {
		var err error
		updated, err = s.targets.Edit(ctx, id, func(t odb.Target) (odb.Target, error) {
			if err := mutator(&t); err != nil {
				return odb.Target{}, err
			}
			return t, nil
		})
		return err
	})
	return updated, err
}

// DeleteTarget soft-deletes a target.
func (s *Service) DeleteTarget(ctx context.Context, id odb.TargetID) error {
	return s.run(ctx, "delete_target", func(ctx context.Context) error {
		return s.targets.Delete(ctx, id)
	})
}

// UndeleteTarget restores a soft-deleted target.
func (s *Service) UndeleteTarget(ctx context.Context, id odb.TargetID) error {
	return s.run(ctx, "undelete_target", func(ctx context.Context) error {
		return s.targets.Undelete(ctx, id)
	})
}

// Asterisms ------------------------------------------------------------------

// CreateAsterism validates and inserts a new asterism, sharing it with the
// requested programs in the same transition.
func (s *Service) CreateAsterism(ctx context.Context, c odb.AsterismCreate) (odb.Asterism, error) {
	var created odb.Asterism
	err := s.run(ctx, "create_asterism", func(ctx context.Context) error {
		if err := c.Validate(); err != nil {
			return err
		}
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			for _, pid := range c.ProgramIDs {
				if _, ok := t.Programs[pid]; !ok {
					return odb.ErrNotFound{Entity: odb.EntityProgram, ID: pid.String()}
				}
			}
			for _, tid := range c.TargetIDs {
				if _, ok := t.Targets[tid]; !ok {
					return odb.ErrNotFound{Entity: odb.EntityTarget, ID: tid.String()}
				}
			}
			var err error
			created, err = s.asterisms.InsertTx(tx, c.ID, func(id odb.AsterismID) (odb.Asterism, error) {
				a := odb.Asterism{
					ID:           id,
					Existence:    odb.Present,
					Variant:      c.Variant,
					ExplicitBase: c.ExplicitBase,
					TargetIDs:    append([]odb.TargetID(nil), c.TargetIDs...),
				}
				return a, nil
			})
			if err != nil {
				return err
			}
			for _, pid := range c.ProgramIDs {
				t.ProgramAsterisms.Link(pid, created.ID)
			}
			return nil
		})
	})
	return created, err
}

// SelectAsterism returns an asterism by id.
func (s *Service) SelectAsterism(ctx context.Context, id odb.AsterismID, includeDeleted bool) (odb.Asterism, error) {
	return s.asterisms.SelectByID(ctx, id, includeDeleted)
}

// SelectAsterisms returns all asterisms ordered by id.
func (s *Service) SelectAsterisms(ctx context.Context, includeDeleted bool) []odb.Asterism {
	return s.asterisms.SelectAll(ctx, includeDeleted)
}

// DeleteAsterism soft-deletes an asterism.
func (s *Service) DeleteAsterism(ctx context.Context, id odb.AsterismID) error {
	return s.run(ctx, "delete_asterism", func(ctx context.Context) error {
		return s.asterisms.Delete(ctx, id)
	})
}

// UndeleteAsterism restores a soft-deleted asterism.
func (s *Service) UndeleteAsterism(ctx context.Context, id odb.AsterismID) error {
	return s.run(ctx, "undelete_asterism", func(ctx context.Context) error {
		return s.asterisms.Undelete(ctx, id)
	})
}

// Observations ----------------------------------------------------------------

// CreateObservation validates the sequence payload, checks the program and
// target references, and inserts the observation, all as one transition. On
// validation failure every discovered problem is reported together.
func (s *Service) CreateObservation(ctx context.Context, c odb.ObservationCreate) (odb.Observation, error) {
	var created odb.Observation
	err := s.run(ctx, "create_observation", func(ctx context.Context) error {
		seq, err := c.Config.Validate()
		if err != nil {
			return err
		}
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			if p, ok := t.Programs[c.ProgramID]; !ok || p.Existence.IsDeleted() {
				return odb.ErrNotFound{Entity: odb.EntityProgram, ID: c.ProgramID.String()}
			}
			if tgt, ok := t.Targets[c.TargetID]; !ok || tgt.Existence.IsDeleted() {
				return odb.ErrNotFound{Entity: odb.EntityTarget, ID: c.TargetID.String()}
			}
			created, err = s.observations.InsertTx(tx, c.ID, func(id odb.ObservationID) (odb.Observation, error) {
				return odb.Observation{
					ID:        id,
					Existence: odb.Present,
					ProgramID: c.ProgramID,
					TargetID:  c.TargetID,
					Title:     c.Title,
					Config:    seq,
				}, nil
			})
			return err
		})
	})
	return created, err
}

// SelectObservation returns an observation by id.
func (s *Service) SelectObservation(ctx context.Context, id odb.ObservationID, includeDeleted bool) (odb.Observation, error) {
	return s.observations.SelectByID(ctx, id, includeDeleted)
}

// SelectObservations returns all observations ordered by id.
func (s *Service) SelectObservations(ctx context.Context, includeDeleted bool) []odb.Observation {
	return s.observations.SelectAll(ctx, includeDeleted)
}

// ProgramObservations returns the visible observations belonging to a
// program, ordered by id.
func (s *Service) ProgramObservations(ctx context.Context, pid odb.ProgramID) []odb.Observation {
	all := s.observations.SelectAll(ctx, false)
	out := all[:0]
	for _, o := range all {
		if o.ProgramID == pid {
			out = append(out, o)
		}
	}
	return out
}

// UpdateObservation edits an observation through the provided mutator and
// re-checks that its program and target references are live before
// installing, matching the creation-time rule.
func (s *Service) UpdateObservation(ctx context.Context, id odb.ObservationID, mutator func(*odb.Observation) error) (odb.Observation, error) {
	var updated odb.Observation
	err := s.run(ctx, "update_observation", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			var err error
			updated, err = s.observations.EditTx(tx, id, func(o odb.Observation) (odb.Observation, error) {
				if err := mutator(&o); err != nil {
					return odb.Observation{}, err
				}
				return o, nil
			})
			if err != nil {
				return err
			}
			t := tx.Tables()
			if p, ok := t.Programs[updated.ProgramID]; !ok || p.Existence.IsDeleted() {
				return odb.ErrNotFound{Entity: odb.EntityProgram, ID: updated.ProgramID.String()}
			}
			if tgt, ok := t.Targets[updated.TargetID]; !ok || tgt.Existence.IsDeleted() {
				return odb.ErrNotFound{Entity: odb.EntityTarget, ID: updated.TargetID.String()}
			}
			return nil
		})
	})
	return updated, err
}

// SetObservationSequence replaces an observation's execution sequence with a
// freshly validated one.
func (s *Service) SetObservationSequence(ctx context.Context, id odb.ObservationID, sc odb.SequenceCreate) (odb.Observation, error) {
	var updated odb.Observation
	err := s.run(ctx, "set_observation_sequence", func(ctx context.Context) error {
		seq, err := sc.Validate()
		if err != nil {
			return err
		}
		updated, err = s.observations.Edit(ctx, id, func(o odb.Observation) (odb.Observation, error) {
			o.Config = seq
			return o, nil
		})
		return err
	})
	return updated, err
}

// DeleteObservation soft-deletes an observation.
func (s *Service) DeleteObservation(ctx context.Context, id odb.ObservationID) error {
	return s.run(ctx, "delete_observation", func(ctx context.Context) error {
		return s.observations.Delete(ctx, id)
	})
}

// UndeleteObservation restores a soft-deleted observation.
func (s *Service) UndeleteObservation(ctx context.Context, id odb.ObservationID) error {
	return s.run(ctx, "undelete_observation", func(ctx context.Context) error {
		return s.observations.Undelete(ctx, id)
	})
}

// Relations --------------------------------------------------------------------

// ShareTargetWithProgram links a target into a program. Both identifiers
// must have been issued; soft-deleted endpoints may still be linked.
func (s *Service) ShareTargetWithProgram(ctx context.Context, tid odb.TargetID, pid odb.ProgramID) error {
	return s.run(ctx, "share_target", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			if err := requireIssued(t, pid, tid); err != nil {
				return err
			}
			t.ProgramTargets.Link(pid, tid)
			return nil
		})
	})
}

// UnshareTargetFromProgram removes the link in both directions.
func (s *Service) UnshareTargetFromProgram(ctx context.Context, tid odb.TargetID, pid odb.ProgramID) error {
	return s.run(ctx, "unshare_target", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			tx.Tables().ProgramTargets.Unlink(pid, tid)
			return nil
		})
	})
}

// ReplaceProgramTargets resynchronises a program's target set: after the
// call the program is linked to exactly the given targets.
func (s *Service) ReplaceProgramTargets(ctx context.Context, pid odb.ProgramID, tids []odb.TargetID) error {
	return s.run(ctx, "replace_program_targets", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			if err := requireIssued(t, pid, tids...); err != nil {
				return err
			}
			t.ProgramTargets.ReplaceRight(pid, tids)
			return nil
		})
	})
}

// ProgramTargetIDs returns the target ids linked to a program, ascending.
func (s *Service) ProgramTargetIDs(_ context.Context, pid odb.ProgramID) []odb.TargetID {
	t := s.store.Snapshot()
	return t.ProgramTargets.RightOf(pid)
}

// TargetProgramIDs returns the program ids linked to a target, ascending.
func (s *Service) TargetProgramIDs(_ context.Context, tid odb.TargetID) []odb.ProgramID {
	t := s.store.Snapshot()
	return t.ProgramTargets.LeftOf(tid)
}

// ShareAsterismWithProgram links an asterism into a program.
func (s *Service) ShareAsterismWithProgram(ctx context.Context, aid odb.AsterismID, pid odb.ProgramID) error {
	return s.run(ctx, "share_asterism", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			t := tx.Tables()
			if _, ok := t.Programs[pid]; !ok {
				return odb.ErrNotFound{Entity: odb.EntityProgram, ID: pid.String()}
			}
			if _, ok := t.Asterisms[aid]; !ok {
				return odb.ErrNotFound{Entity: odb.EntityAsterism, ID: aid.String()}
			}
			t.ProgramAsterisms.Link(pid, aid)
			return nil
		})
	})
}

// UnshareAsterismFromProgram removes the link in both directions.
func (s *Service) UnshareAsterismFromProgram(ctx context.Context, aid odb.AsterismID, pid odb.ProgramID) error {
	return s.run(ctx, "unshare_asterism", func(ctx context.Context) error {
		return s.store.Modify(ctx, func(tx *store.Tx) error {
			tx.Tables().ProgramAsterisms.Unlink(pid, aid)
			return nil
		})
	})
}

// ProgramAsterismIDs returns the asterism ids linked to a program, ascending.
func (s *Service) ProgramAsterismIDs(_ context.Context, pid odb.ProgramID) []odb.AsterismID {
	t := s.store.Snapshot()
	return t.ProgramAsterisms.RightOf(pid)
}

// AsterismProgramIDs returns the program ids linked to an asterism, ascending.
func (s *Service) AsterismProgramIDs(_ context.Context, aid odb.AsterismID) []odb.ProgramID {
	t := s.store.Snapshot()
	return t.ProgramAsterisms.LeftOf(aid)
}

func requireIssued(t *store.Tables, pid odb.ProgramID, tids ...odb.TargetID) error {
	if _, ok := t.Programs[pid]; !ok {
		return odb.ErrNotFound{Entity: odb.EntityProgram, ID: pid.String()}
	}
	for _, tid := range tids {
		if _, ok := t.Targets[tid]; !ok {
			return odb.ErrNotFound{Entity: odb.EntityTarget, ID: tid.String()}
		}
	}
	return nil
}
