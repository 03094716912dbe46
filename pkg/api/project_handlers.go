package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/projects"
)

func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	records, err := s.projects.List(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*projects.WireProject, 0, len(records))
	for _, p := range records {
		results = append(results, projects.ToWire(p))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	p, err := s.projects.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, projects.ToWire(p))
}

func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	p, err := s.projects.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, projects.ToWire(p))
}

func (s *Server) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
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
	p, err := s.projects.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, projects.ToWire(p))
}

func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.projects.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleProjectOrganizations(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.projects.OrganizationIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeOrgList(w, r, ids)
}

func (s *Server) handleProjectTeams(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.projects.TeamIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeTeamList(w, r, ids)
}
