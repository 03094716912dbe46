package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/identity"
	"github.com/platinummonkey/commander/pkg/inventory"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/orgs"
	"github.com/platinummonkey/commander/pkg/projects"
	"github.com/platinummonkey/commander/pkg/teams"
	"github.com/platinummonkey/commander/pkg/users"
)

// The write*List helpers render a sub-collection from an already-narrowed ID
// set. Authorization happened in the service that produced the set.

func (s *Server) writeUserList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.users.ByIDs(r.Context(), ids)
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

func (s *Server) writeOrgList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.orgs.ByIDs(r.Context(), ids)
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

func (s *Server) writeTeamList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.teams.ByIDs(r.Context(), ids)
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

func (s *Server) writeProjectList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.projects.ByIDs(r.Context(), ids)
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

func (s *Server) writeInventoryList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.inventory.InventoriesByIDs(r.Context(), ids)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WireInventory, 0, len(records))
	for _, inv := range records {
		results = append(results, inventory.ToWire(inv))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) writeHostList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.inventory.HostsByIDs(r.Context(), ids)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WireHost, 0, len(records))
	for _, h := range records {
		results = append(results, inventory.HostToWire(h))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) writeGroupList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.inventory.GroupsByIDs(r.Context(), ids)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WireGroup, 0, len(records))
	for _, g := range records {
		results = append(results, inventory.GroupToWire(g))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) writePermissionList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	records, err := s.inventory.PermissionsByIDs(r.Context(), ids)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WirePermission, 0, len(records))
	for _, p := range records {
		results = append(results, inventory.PermissionToWire(p))
	}
	httputil.WriteList(w, len(results), results)
}

// writeCredentialList narrows per-credential, since a credential's
// readability depends on the actor's relation to its owner.
func (s *Server) writeCredentialList(w http.ResponseWriter, r *http.Request, ids identity.IDSet) {
	actor := middleware.Actor(r.Context())
	records, err := s.credentials.ListByIDs(r.Context(), actor, ids)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*credentials.WireCredential, 0, len(records))
	for _, c := range records {
		results = append(results, credentials.ToWire(c))
	}
	httputil.WriteList(w, len(results), results)
}
