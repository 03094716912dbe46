package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/rbac"
	"github.com/platinummonkey/commander/pkg/users"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	u, err := s.users.Me(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	// The current user renders as a one-element list, like any collection.
	httputil.WriteList(w, 1, []*users.WireUser{users.ToWire(u)})
}

// handleMeWrite rejects writes to the reflective endpoint; the account is
// edited through its own detail URL.
func (s *Server) handleMeWrite(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	if !actor.Authenticated() {
		httputil.WriteDomainError(w, rbac.ErrUnauthenticated)
		return
	}
	httputil.WriteDomainError(w, rbac.ErrForbidden)
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	records, err := s.users.List(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*users.WireUser, 0, len(records))
	for _, u := range records {
		results = append(results, users.ToWire(u))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	u, err := s.users.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, users.ToWire(u))
}

func (s *Server) handleUserDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	u, err := s.users.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, users.ToWire(u))
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	u, err := s.users.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, users.ToWire(u))
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.users.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleUserOrganizations(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.users.OrganizationIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeOrgList(w, r, ids)
}

func (s *Server) handleUserAdminOrganizations(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.users.AdminOrganizationIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeOrgList(w, r, ids)
}

func (s *Server) handleUserTeams(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.users.TeamIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeTeamList(w, r, ids)
}

func (s *Server) handleUserProjects(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.users.ProjectIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeProjectList(w, r, ids)
}

func (s *Server) handleUserCredentials(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.users.Get(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	ids, err := s.credentials.IDsOwnedByUser(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeCredentialList(w, r, ids)
}

// handleUserCredentialCreate creates a credential owned by the user in the
// path; any owner in the body is overridden.
func (s *Server) handleUserCredentialCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	body["user"] = id
	delete(body, "team")
	c, err := s.credentials.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, credentials.ToWire(c))
}

func (s *Server) handleUserPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if _, err := s.users.Get(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	ids, err := s.inventory.PermissionIDsOfUser(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writePermissionList(w, r, ids)
}
