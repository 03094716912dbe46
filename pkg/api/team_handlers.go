package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/teams"
)

func (s *Server) handleTeamList(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	records, err := s.teams.List(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*teams.WireTeam, 0, len(records))
	for _, t := range records {
		results = append(results, teams.ToWire(t))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleTeamCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	t, err := s.teams.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, teams.ToWire(t))
}

func (s *Server) handleTeamDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	t, err := s.teams.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, teams.ToWire(t))
}

func (s *Server) handleTeamUpdate(w http.ResponseWriter, r *http.Request) {
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
	t, err := s.teams.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, teams.ToWire(t))
}

func (s *Server) handleTeamDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.teams.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleTeamUsers(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.teams.MemberIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeUserList(w, r, ids)
}

func (s *Server) handleTeamUsersEdge(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	childID, disassociate, ok := parseEdgeRequest(w, r)
	if !ok {
		return
	}
	var err error
	if disassociate {
		err = s.teams.RemoveMember(r.Context(), actor, id, childID)
	} else {
		err = s.teams.AddMember(r.Context(), actor, id, childID)
	}
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleTeamProjects(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.teams.ProjectIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeProjectList(w, r, ids)
}

func (s *Server) handleTeamProjectsEdge(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	childID, disassociate, ok := parseEdgeRequest(w, r)
	if !ok {
		return
	}
	var err error
	if disassociate {
		err = s.teams.RemoveProject(r.Context(), actor, id, childID)
	} else {
		err = s.teams.AddProject(r.Context(), actor, id, childID)
	}
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleTeamCredentials(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.teams.CredentialIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeCredentialList(w, r, ids)
}

// handleTeamCredentialCreate creates a credential owned by the team in the
// path; any owner in the body is overridden.
func (s *Server) handleTeamCredentialCreate(w http.ResponseWriter, r *http.Request) {
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
	body["team"] = id
	delete(body, "user")
	c, err := s.credentials.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, credentials.ToWire(c))
}

func (s *Server) handleTeamPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.teams.PermissionIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writePermissionList(w, r, ids)
}
