package credentials

import (
	"context"

	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Service applies the authorization engine to credential operations. There
// is no top-level credential listing; credentials surface only through their
// owning user's or team's sub-collection.
type Service struct {
	engine *rbac.Engine
	graph  identity.Graph
	store  *Store
	life   *lifecycle.Manager
}

// NewService wires the credential service.
func NewService(engine *rbac.Engine, graph identity.Graph, store *Store, life *lifecycle.Manager) *Service {
	return &Service{engine: engine, graph: graph, store: store, life: life}
}

func (s *Service) object(c *Credential) rbac.Object {
	userID, teamID := c.Subject()
	return rbac.Object{
		Type:        rbac.ResourceCredential,
		ID:          c.ID,
		Active:      c.Active,
		OwnerUserID: userID,
		OwnerTeamID: teamID,
	}
}

// Get returns one credential, or the taxonomy error for the denial.
func (s *Service) Get(ctx context.Context, actor rbac.ActorContext, id int64) (*Credential, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, c.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceCredential, rbac.ActionRead, s.object(c)); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByIDs renders the credentials in ids that the actor may read. Used by
// the user and team sub-collections, which establish parent readability
// before calling.
func (s *Service) ListByIDs(ctx context.Context, actor rbac.ActorContext, ids identity.IDSet) ([]*Credential, error) {
	all, err := s.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]*Credential, 0, len(all))
	for _, c := range all {
		ok, err := s.engine.CanRead(ctx, actor, s.object(c))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Create provisions a credential owned by exactly one of a user or a team.
func (s *Service) Create(ctx context.Context, actor rbac.ActorContext, body map[string]interface{}) (*Credential, error) {
	userID, hasUser := fieldInt64(body, "user")
	teamID, hasTeam := fieldInt64(body, "team")
	if hasUser == hasTeam {
		return nil, rbac.NewValidationError("exactly one of user or team must be set", "user", "team")
	}

	proposed := rbac.Object{Type: rbac.ResourceCredential}
	if hasUser {
		proposed.OwnerUserID = userID
	} else {
		proposed.OwnerTeamID = teamID
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceCredential, rbac.ActionCreate, proposed); err != nil {
		return nil, err
	}

	name, _ := fieldString(body, "name")
	if name == "" {
		return nil, rbac.NewValidationError("name is required", "name")
	}

	c := &Credential{Name: name}
	if hasUser {
		c.UserID = &userID
	} else {
		c.TeamID = &teamID
	}
	c.Description, _ = fieldString(body, "description")
	applySecrets(c, body)
	if err := s.store.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the body to a credential after the mutation guard.
// Ownership changes trip the guard as write-once violations.
func (s *Service) Update(ctx context.Context, actor rbac.ActorContext, id int64, body map[string]interface{}) (*Credential, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Gate(actor, c.Active); err != nil {
		return nil, err
	}
	if err := s.engine.Authorize(ctx, actor, rbac.ResourceCredential, rbac.ActionUpdate, s.object(c)); err != nil {
		return nil, err
	}
	if err := rbac.CheckChanges(actor, rbac.ResourceCredential, wire.Diff(wireMap(c), body)); err != nil {
		return nil, err
	}

	if v, ok := fieldString(body, "name"); ok {
		c.Name = v
	}
	if v, ok := fieldString(body, "description"); ok {
		c.Description = v
	}
	applySecrets(c, body)

	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete soft-deletes the credential.
func (s *Service) Delete(ctx context.Context, actor rbac.ActorContext, id int64) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.life.Delete(ctx, actor, s.object(c))
}

// IDsOwnedByUser lists the user's active credentials.
func (s *Service) IDsOwnedByUser(ctx context.Context, userID int64) (identity.IDSet, error) {
	return s.store.IDsOwnedByUser(ctx, userID)
}

// IDsOwnedByTeam lists the team's active credentials.
func (s *Service) IDsOwnedByTeam(ctx context.Context, teamID int64) (identity.IDSet, error) {
	return s.store.IDsOwnedByTeam(ctx, teamID)
}

// applySecrets copies the write-only secret fields present in the body.
func applySecrets(c *Credential, body map[string]interface{}) {
	if v, ok := fieldString(body, "ssh_username"); ok {
		c.SSHUsername = v
	}
	if v, ok := fieldString(body, "ssh_password"); ok {
		c.SSHPassword = v
	}
	if v, ok := fieldString(body, "ssh_key_data"); ok {
		c.SSHKeyData = v
	}
	if v, ok := fieldString(body, "ssh_key_unlock"); ok {
		c.SSHKeyUnlock = v
	}
	if v, ok := fieldString(body, "sudo_username"); ok {
		c.SudoUsername = v
	}
	if v, ok := fieldString(body, "sudo_password"); ok {
		c.SudoPassword = v
	}
}

func fieldString(body map[string]interface{}, key string) (string, bool) {
	v, ok := body[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func fieldInt64(body map[string]interface{}, key string) (int64, bool) {
	switch n := body[key].(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	}
	return 0, false
}
