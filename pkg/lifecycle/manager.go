package lifecycle

import (
	"context"
	"log/slog"

	"github.com/platinummonkey/commander/pkg/rbac"
)

// Invalidator drops cached relationship edges after a mutation. The SQL
// graph's caches satisfy it; a nil Invalidator disables invalidation.
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Manager applies delete, associate and disassociate operations after
// consulting the authorization engine.
type Manager struct {
	engine     *rbac.Engine
	store      Store
	invalidate Invalidator
	logger     *slog.Logger
}

// NewManager wires a manager. invalidate may be nil.
func NewManager(engine *rbac.Engine, store Store, invalidate Invalidator, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{engine: engine, store: store, invalidate: invalidate, logger: logger}
}

// Gate enforces the soft-delete visibility rule: an inactive record simply
// does not exist for non-superusers. Call it before any authorization rule
// so the denial cannot leak existence.
func Gate(actor rbac.ActorContext, active bool) error {
	if !actor.Authenticated() {
		return rbac.ErrUnauthenticated
	}
	if !active && !actor.Superuser() {
		return rbac.ErrNotFound
	}
	return nil
}

// Delete soft-deletes the record. The transition is one-way; deleting an
// already inactive record (visible only to superusers) is a no-op success.
func (m *Manager) Delete(ctx context.Context, actor rbac.ActorContext, obj rbac.Object) error {
	if err := Gate(actor, obj.Active); err != nil {
		return err
	}
	if err := m.authorize(ctx, actor, obj, rbac.ActionDelete); err != nil {
		return err
	}
	if err := m.store.Deactivate(ctx, obj.Type, obj.ID); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "record deactivated",
		slog.String("resource", string(obj.Type)),
		slog.Int64("id", obj.ID),
		slog.Int64("actor", actor.UserID()),
	)
	m.flush(ctx)
	return nil
}

// Associate adds childID to the parent's relation. Authority is the same as
// updating the parent. Re-adding an existing member is a no-op success.
func (m *Manager) Associate(ctx context.Context, actor rbac.ActorContext, parent rbac.Object, rel Relation, childID int64) error {
	if err := Gate(actor, parent.Active); err != nil {
		return err
	}
	if err := m.authorize(ctx, actor, parent, rbac.ActionAssociate); err != nil {
		return err
	}
	if err := m.store.AddEdge(ctx, rel, parent.ID, childID); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "association added",
		slog.String("relation", string(rel)),
		slog.Int64("parent", parent.ID),
		slog.Int64("child", childID),
		slog.Int64("actor", actor.UserID()),
	)
	m.flush(ctx)
	return nil
}

// Disassociate removes childID from the parent's relation. Removing an
// absent association succeeds, so retried removals are safe.
func (m *Manager) Disassociate(ctx context.Context, actor rbac.ActorContext, parent rbac.Object, rel Relation, childID int64) error {
	if err := Gate(actor, parent.Active); err != nil {
		return err
	}
	if err := m.authorize(ctx, actor, parent, rbac.ActionDisassociate); err != nil {
		return err
	}
	if err := m.store.RemoveEdge(ctx, rel, parent.ID, childID); err != nil {
		return err
	}
	m.logger.InfoContext(ctx, "association removed",
		slog.String("relation", string(rel)),
		slog.Int64("parent", parent.ID),
		slog.Int64("child", childID),
		slog.Int64("actor", actor.UserID()),
	)
	m.flush(ctx)
	return nil
}

// InvalidateEdges drops cached relationship edges. Services that mutate
// grant rows outside the manager call it so the change is visible before
// the cache's TTL expires.
func (m *Manager) InvalidateEdges(ctx context.Context) {
	m.flush(ctx)
}

func (m *Manager) authorize(ctx context.Context, actor rbac.ActorContext, obj rbac.Object, action rbac.Action) error {
	return m.engine.Authorize(ctx, actor, obj.Type, action, obj)
}

func (m *Manager) flush(ctx context.Context) {
	if m.invalidate != nil {
		m.invalidate.InvalidateAll(ctx)
	}
}
