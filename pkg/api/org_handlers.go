package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/lifecycle"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/orgs"
	"github.com/platinummonkey/commander/pkg/teams"
)

func (s *Server) handleOrgList(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	records, err := s.orgs.List(r.Context(), actor)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*orgs.WireOrganization, 0, len(records))
	for _, o := range records {
		results = append(results, orgs.ToWire(o))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleOrgCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	o, err := s.orgs.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, orgs.ToWire(o))
}

func (s *Server) handleOrgDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	o, err := s.orgs.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, orgs.ToWire(o))
}

func (s *Server) handleOrgUpdate(w http.ResponseWriter, r *http.Request) {
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
	o, err := s.orgs.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, orgs.ToWire(o))
}

func (s *Server) handleOrgDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.orgs.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

var orgEdgeRelations = map[string]lifecycle.Relation{
	"users":    lifecycle.OrgMembers,
	"admins":   lifecycle.OrgAdmins,
	"projects": lifecycle.OrgProjects,
}

// orgEdge builds the POST handler of an organization sub-collection.
func (s *Server) orgEdge(sub string) http.HandlerFunc {
	rel := orgEdgeRelations[sub]
	return func(w http.ResponseWriter, r *http.Request) {
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
			err = s.orgs.Disassociate(r.Context(), actor, id, rel, childID)
		} else {
			err = s.orgs.Associate(r.Context(), actor, id, rel, childID)
		}
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		httputil.WriteNoContent(w)
	}
}

func (s *Server) handleOrgUsers(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.orgs.UserIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeUserList(w, r, ids)
}

func (s *Server) handleOrgAdmins(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.orgs.AdminIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeUserList(w, r, ids)
}

func (s *Server) handleOrgProjects(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.orgs.ProjectIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeProjectList(w, r, ids)
}

func (s *Server) handleOrgInventories(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.orgs.InventoryIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeInventoryList(w, r, ids)
}

func (s *Server) handleOrgTeams(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.orgs.TeamIDsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeTeamList(w, r, ids)
}

// handleOrgTeamCreate creates a team under the organization in the path; any
// organization in the body is overridden.
func (s *Server) handleOrgTeamCreate(w http.ResponseWriter, r *http.Request) {
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
	body["organization"] = id
	team, err := s.teams.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, teams.ToWire(team))
}

func (s *Server) handleOrgTags(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	tags, err := s.orgs.TagsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteList(w, len(tags), tags)
}

func (s *Server) handleOrgTagCreate(w http.ResponseWriter, r *http.Request) {
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
	tag, err := s.orgs.CreateTag(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, tag)
}

func (s *Server) handleOrgAuditTrail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	entries, err := s.orgs.AuditTrailOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteList(w, len(entries), entries)
}

func (s *Server) handleTagDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	tag, err := s.orgs.GetTag(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, tag)
}

func (s *Server) handleTagDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.orgs.DeleteTag(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
