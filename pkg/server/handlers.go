// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Javier-Cancino/econonexo/pkg/agent"
	"github.com/Javier-Cancino/econonexo/pkg/catalog"
	"github.com/Javier-Cancino/econonexo/pkg/credential"
	"github.com/Javier-Cancino/econonexo/pkg/search"
)

const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.version})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	resp := s.chat.Run(r.Context(), agent.Request{UserID: userID(r), Message: req.Message})
	writeJSON(w, http.StatusOK, resp)
}

type searchResponse struct {
	Results []search.Candidate `json:"results"`
	Error   string             `json:"error,omitempty"`
}

func (s *Server) handleSearchIndicators(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	sourceParam := r.URL.Query().Get("source")
	if sourceParam == "" {
		sourceParam = string(catalog.SourceINEGI)
	}

	src, err := catalog.ParseSource(sourceParam)
	if query == "" || err != nil {
		writeJSON(w, http.StatusOK, searchResponse{Results: []search.Candidate{}})
		return
	}

	results, err := s.searcher.Search(r.Context(), query, src)
	if err != nil {
		slog.Error("Catalog search failed", "source", src, "query", query, "error", err)
		writeJSON(w, http.StatusOK, searchResponse{Results: []search.Candidate{}, Error: "Error loading catalog"})
		return
	}
	if results == nil {
		results = []search.Candidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.keys.List(r.Context(), userID(r))
	if err != nil {
		slog.Error("Failed to list API keys", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list API keys")
		return
	}
	if keys == nil {
		keys = []credential.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"apiKeys": keys})
}

type keyRequest struct {
	Provider string `json:"provider"`
	Key      string `json:"key"`
}

func (s *Server) handlePutKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Provider == "" || strings.TrimSpace(req.Key) == "" {
		writeError(w, http.StatusBadRequest, "Provider and key are required")
		return
	}
	if !credential.Valid(req.Provider) {
		writeError(w, http.StatusBadRequest, "Invalid provider")
		return
	}

	id, err := s.keys.Put(r.Context(), userID(r), req.Provider, strings.TrimSpace(req.Key))
	if err != nil {
		slog.Error("Failed to store API key", "provider", req.Provider, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store API key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id})
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Provider == "" {
		writeError(w, http.StatusBadRequest, "Provider is required")
		return
	}

	if err := s.keys.Delete(r.Context(), userID(r), req.Provider); err != nil {
		slog.Error("Failed to delete API key", "provider", req.Provider, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete API key")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
