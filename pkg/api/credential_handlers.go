package api

import (
	"net/http"

	"github.com/platinummonkey/commander/pkg/credentials"
	"github.com/platinummonkey/commander/pkg/httputil"
	"github.com/platinummonkey/commander/pkg/middleware"
)

func (s *Server) handleCredentialDetail(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	c, err := s.credentials.Get(r.Context(), actor, id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, credentials.ToWire(c))
}

func (s *Server) handleCredentialUpdate(w http.ResponseWriter, r *http.Request) {
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
	c, err := s.credentials.Update(r.Context(), actor, id, body)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, credentials.ToWire(c))
}

func (s *Server) handleCredentialDelete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.Actor(r.Context())
	id, ok := httputil.ParsePathInt64OrError(w, r, "id")
	if !ok {
		return
	}
	if err := s.credentials.Delete(r.Context(), actor, id); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteNoContent(w)
}
