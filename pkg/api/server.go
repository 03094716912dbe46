package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/inventory"
	"github.com/platinummonkey/commander/pkg/middleware"
	"github.com/platinummonkey/commander/pkg/observability"
	"github.com/platinummonkey/commander/pkg/orgs"
	"github.com/platinummonkey/commander/pkg/projects"
	"github.com/platinummonkey/commander/pkg/teams"
	"github.com/platinummonkey/commander/pkg/users"
	"github.com/platinummonkey/commander/pkg/wire"
)

// Server aggregates the domain services behind the REST surface.
type Server struct {
	users       *users.Service
	orgs        *orgs.Service
	teams       *teams.Service
	projects    *projects.Service
	inventory   *inventory.Service
	credentials *credentials.Service

	auth    middleware.Authenticator
	logger  *observability.Logger
	metrics *observability.Metrics
}

// Config carries the server's collaborators.
type Config struct {
	Users       *users.Service
	Orgs        *orgs.Service
	Teams       *teams.Service
	Projects    *projects.Service
	Inventory   *inventory.Service
	Credentials *credentials.Service

	Authenticator middleware.Authenticator
	Logger        *observability.Logger
	Metrics       *observability.Metrics
}

// NewServer builds the server over the given services.
func NewServer(cfg Config) *Server {
	return &Server{
		users:       cfg.Users,
		orgs:        cfg.Orgs,
		teams:       cfg.Teams,
		projects:    cfg.Projects,
		inventory:   cfg.Inventory,
		credentials: cfg.Credentials,
		auth:        cfg.Authenticator,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Handler builds the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.RegisterRoutes(router)

	var h http.Handler = router
	h = middleware.BasicAuth(s.auth)(h)
	if s.metrics != nil {
		h = middleware.Metrics(s.metrics)(h)
	}
	h = middleware.Logging(h)
	h = middleware.Recovery(h)
	h = middleware.RequestID(s.logger)(h)
	return otelhttp.NewHandler(h, "api")
}

// RegisterRoutes attaches every versioned route to the router.
func (s *Server) RegisterRoutes(router *mux.Router) {
	// A failed match inside the subrouter bubbles up to the root router, so
	// the error handlers must live there or they never fire.
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusNotFound, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteMethodNotAllowed(w)
	})
	api := router.PathPrefix(wire.Prefix).Subrouter()

	api.HandleFunc("/me/", s.handleMe).Methods(http.MethodGet)
	api.HandleFunc("/me/", s.handleMeWrite).Methods(http.MethodPost, http.MethodPut)

	api.HandleFunc("/organizations/", s.handleOrgList).Methods(http.MethodGet)
	api.HandleFunc("/organizations/", s.handleOrgCreate).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/", s.handleOrgDetail).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/", s.handleOrgUpdate).Methods(http.MethodPut)
	api.HandleFunc("/organizations/{id}/", s.handleOrgDelete).Methods(http.MethodDelete)
	api.HandleFunc("/organizations/{id}/users/", s.handleOrgUsers).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/users/", s.orgEdge("users")).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/admins/", s.handleOrgAdmins).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/admins/", s.orgEdge("admins")).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/projects/", s.handleOrgProjects).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/projects/", s.orgEdge("projects")).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/inventories/", s.handleOrgInventories).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/teams/", s.handleOrgTeams).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/teams/", s.handleOrgTeamCreate).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/tags/", s.handleOrgTags).Methods(http.MethodGet)
	api.HandleFunc("/organizations/{id}/tags/", s.handleOrgTagCreate).Methods(http.MethodPost)
	api.HandleFunc("/organizations/{id}/audit_trails/", s.handleOrgAuditTrail).Methods(http.MethodGet)

	api.HandleFunc("/users/", s.handleUserList).Methods(http.MethodGet)
	api.HandleFunc("/users/", s.handleUserCreate).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/", s.handleUserDetail).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/", s.handleUserUpdate).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}/", s.handleUserDelete).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/organizations/", s.handleUserOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/admin_organizations/", s.handleUserAdminOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/teams/", s.handleUserTeams).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/projects/", s.handleUserProjects).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/credentials/", s.handleUserCredentials).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/credentials/", s.handleUserCredentialCreate).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/permissions/", s.handleUserPermissions).Methods(http.MethodGet)

	api.HandleFunc("/teams/", s.handleTeamList).Methods(http.MethodGet)
	api.HandleFunc("/teams/", s.handleTeamCreate).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}/", s.handleTeamDetail).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/", s.handleTeamUpdate).Methods(http.MethodPut)
	api.HandleFunc("/teams/{id}/", s.handleTeamDelete).Methods(http.MethodDelete)
	api.HandleFunc("/teams/{id}/users/", s.handleTeamUsers).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/users/", s.handleTeamUsersEdge).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}/projects/", s.handleTeamProjects).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/projects/", s.handleTeamProjectsEdge).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}/credentials/", s.handleTeamCredentials).Methods(http.MethodGet)
	api.HandleFunc("/teams/{id}/credentials/", s.handleTeamCredentialCreate).Methods(http.MethodPost)
	api.HandleFunc("/teams/{id}/permissions/", s.handleTeamPermissions).Methods(http.MethodGet)

	api.HandleFunc("/projects/", s.handleProjectList).Methods(http.MethodGet)
	api.HandleFunc("/projects/", s.handleProjectCreate).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}/", s.handleProjectDetail).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/", s.handleProjectUpdate).Methods(http.MethodPut)
	api.HandleFunc("/projects/{id}/", s.handleProjectDelete).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/organizations/", s.handleProjectOrganizations).Methods(http.MethodGet)
	api.HandleFunc("/projects/{id}/teams/", s.handleProjectTeams).Methods(http.MethodGet)

	api.HandleFunc("/inventories/", s.handleInventoryList).Methods(http.MethodGet)
	api.HandleFunc("/inventories/", s.handleInventoryCreate).Methods(http.MethodPost)
	api.HandleFunc("/inventories/{id}/", s.handleInventoryDetail).Methods(http.MethodGet)
	api.HandleFunc("/inventories/{id}/", s.handleInventoryUpdate).Methods(http.MethodPut)
	api.HandleFunc("/inventories/{id}/", s.handleInventoryDelete).Methods(http.MethodDelete)
	api.HandleFunc("/inventories/{id}/hosts/", s.handleInventoryHosts).Methods(http.MethodGet)
	api.HandleFunc("/inventories/{id}/groups/", s.handleInventoryGroups).Methods(http.MethodGet)
	api.HandleFunc("/inventories/{id}/permissions/", s.handleInventoryPermissions).Methods(http.MethodGet)

	api.HandleFunc("/hosts/", s.handleHostCreate).Methods(http.MethodPost)
	api.HandleFunc("/hosts/{id}/", s.handleHostDetail).Methods(http.MethodGet)
	api.HandleFunc("/hosts/{id}/", s.handleHostUpdate).Methods(http.MethodPut)
	api.HandleFunc("/hosts/{id}/", s.handleHostDelete).Methods(http.MethodDelete)
	api.HandleFunc("/hosts/{id}/variable_data/", s.handleHostVariableData).Methods(http.MethodGet)
	api.HandleFunc("/hosts/{id}/variable_data/", s.handleHostVariableDataUpdate).Methods(http.MethodPut)
	api.HandleFunc("/hosts/{id}/groups/", s.handleHostGroups).Methods(http.MethodGet)

	api.HandleFunc("/groups/", s.handleGroupCreate).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/", s.handleGroupDetail).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/", s.handleGroupUpdate).Methods(http.MethodPut)
	api.HandleFunc("/groups/{id}/", s.handleGroupDelete).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id}/hosts/", s.handleGroupHosts).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/hosts/", s.handleGroupHostsEdge).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/children/", s.handleGroupChildren).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/children/", s.handleGroupChildrenEdge).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id}/variable_data/", s.handleGroupVariableData).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id}/variable_data/", s.handleGroupVariableDataUpdate).Methods(http.MethodPut)

	api.HandleFunc("/permissions/", s.handlePermissionCreate).Methods(http.MethodPost)
	api.HandleFunc("/permissions/{id}/", s.handlePermissionDetail).Methods(http.MethodGet)
	api.HandleFunc("/permissions/{id}/", s.handlePermissionUpdate).Methods(http.MethodPut)
	api.HandleFunc("/permissions/{id}/", s.handlePermissionDelete).Methods(http.MethodDelete)

	api.HandleFunc("/credentials/{id}/", s.handleCredentialDetail).Methods(http.MethodGet)
	api.HandleFunc("/credentials/{id}/", s.handleCredentialUpdate).Methods(http.MethodPut)
	api.HandleFunc("/credentials/{id}/", s.handleCredentialDelete).Methods(http.MethodDelete)

	api.HandleFunc("/tags/{id}/", s.handleTagDetail).Methods(http.MethodGet)
	api.HandleFunc("/tags/{id}/", s.handleTagDelete).Methods(http.MethodDelete)
}

// edgeRequest is the body of a sub-collection POST: {"id": N} associates,
// {"id": N, "disassociate": 1} removes the edge.
func parseEdgeRequest(w http.ResponseWriter, r *http.Request) (childID int64, disassociate bool, ok bool) {
	body, err := httputil.ParseBody(r)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return 0, false, false
	}
	childID, found := httputil.FieldInt64(body, "id")
	if !found {
		httputil.WriteBadRequest(w, "id is required")
		return 0, false, false
	}
	if v, present := body["disassociate"]; present && httputil.Truthy(v) {
		disassociate = true
	}
	return childID, disassociate, true
}
