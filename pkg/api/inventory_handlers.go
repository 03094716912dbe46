package api

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/inventory"
	"github.com/platinummonkey/commander/pkg/middleware"
)

func (s *Server) handleInventoryList(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	records, err := s.inventory.List(r.Context(), actor)
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

func (s *Server) handleInventoryCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	inv, err := s.inventory.Create(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, inventory.ToWire(inv))
}

func (s *Server) handleInventoryDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	inv, err := s.inventory.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.ToWire(inv))
}

func (s *Server) handleInventoryUpdate(w http.ResponseWriter, r *http.Request) {
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
	inv, err := s.inventory.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.ToWire(inv))
}

func (s *Server) handleInventoryDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.inventory.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleInventoryHosts(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	hosts, err := s.inventory.HostsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WireHost, 0, len(hosts))
	for _, h := range hosts {
		results = append(results, inventory.HostToWire(h))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleInventoryGroups(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	groups, err := s.inventory.GroupsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WireGroup, 0, len(groups))
	for _, g := range groups {
		results = append(results, inventory.GroupToWire(g))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleInventoryPermissions(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	perms, err := s.inventory.PermissionsOf(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	results := make([]*inventory.WirePermission, 0, len(perms))
	for _, p := range perms {
		results = append(results, inventory.PermissionToWire(p))
	}
	httputil.WriteList(w, len(results), results)
}

func (s *Server) handleHostCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	h, err := s.inventory.CreateHost(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, inventory.HostToWire(h))
}

func (s *Server) handleHostDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	h, err := s.inventory.GetHost(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.HostToWire(h))
}

func (s *Server) handleHostUpdate(w http.ResponseWriter, r *http.Request) {
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
	h, err := s.inventory.UpdateHost(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.HostToWire(h))
}

func (s *Server) handleHostDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.inventory.DeleteHost(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleHostGroups(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.inventory.GroupIDsOfHost(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeGroupList(w, r, ids)
}

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	g, err := s.inventory.CreateGroup(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, inventory.GroupToWire(g))
}

func (s *Server) handleGroupDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	g, err := s.inventory.GetGroup(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.GroupToWire(g))
}

func (s *Server) handleGroupUpdate(w http.ResponseWriter, r *http.Request) {
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
	g, err := s.inventory.UpdateGroup(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.GroupToWire(g))
}

func (s *Server) handleGroupDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.inventory.DeleteGroup(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleGroupHosts(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.inventory.HostIDsOfGroup(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeHostList(w, r, ids)
}

func (s *Server) handleGroupHostsEdge(w http.ResponseWriter, r *http.Request) {
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
		err = s.inventory.RemoveHostFromGroup(r.Context(), actor, id, childID)
	} else {
		err = s.inventory.AddHostToGroup(r.Context(), actor, id, childID)
	}
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) handleGroupChildren(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	ids, err := s.inventory.ChildIDsOfGroup(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	s.writeGroupList(w, r, ids)
}

func (s *Server) handleGroupChildrenEdge(w http.ResponseWriter, r *http.Request) {
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
		err = s.inventory.RemoveChildGroup(r.Context(), actor, id, childID)
	} else {
		err = s.inventory.AddChildGroup(r.Context(), actor, id, childID)
	}
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}

// writeVariableBlob renders the stored JSON blob as the response body.
func writeVariableBlob(w http.ResponseWriter, v *inventory.VariableData) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(v.Data), &data); err != nil {
		data = map[string]interface{}{}
	}
	httputil.WriteSuccess(w, data)
}

func (s *Server) handleHostVariableData(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	v, err := s.inventory.HostVariableData(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeVariableBlob(w, v)
}

func (s *Server) handleHostVariableDataUpdate(w http.ResponseWriter, r *http.Request) {
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
	v, err := s.inventory.UpdateHostVariableData(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeVariableBlob(w, v)
}

func (s *Server) handleGroupVariableData(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	v, err := s.inventory.GroupVariableData(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeVariableBlob(w, v)
}

func (s *Server) handleGroupVariableDataUpdate(w http.ResponseWriter, r *http.Request) {
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
	v, err := s.inventory.UpdateGroupVariableData(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	writeVariableBlob(w, v)
}

func (s *Server) handlePermissionCreate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	p, err := s.inventory.CreatePermission(r.Context(), actor, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, inventory.PermissionToWire(p))
}

func (s *Server) handlePermissionDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	p, err := s.inventory.GetPermission(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.PermissionToWire(p))
}

func (s *Server) handlePermissionUpdate(w http.ResponseWriter, r *http.Request) {
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
	p, err := s.inventory.UpdatePermission(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inventory.PermissionToWire(p))
}

func (s *Server) handlePermissionDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.inventory.DeletePermission(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
