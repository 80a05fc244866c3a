package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/pkg/index"
	"github.com/xhad/relay/pkg/loader"
	"github.com/xhad/relay/pkg/orchestrator"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

const maxUploadBytes = 32 << 20

type Config struct {
	Port           string
	TopK           int
	ScoreThreshold float32
}

type Server struct {
	config       Config
	orchestrator *orchestrator.Orchestrator
	index        *index.Index
	loader       *loader.Loader
	logger       *zap.Logger
}

func New(config Config, orch *orchestrator.Orchestrator, idx *index.Index, ldr *loader.Loader, logger *zap.Logger) *Server {
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.TopK <= 0 {
		config.TopK = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Server{
		config:       config,
		orchestrator: orch,
		index:        idx,
		loader:       ldr,
		logger:       logger,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat/send", s.handleSend)
	mux.HandleFunc("POST /api/chat/clear-session", s.handleClearSession)
	mux.HandleFunc("GET /api/chat/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/chat/agents", s.handleListAgents)

	mux.HandleFunc("POST /api/rag/upload", s.handleUpload)
	mux.HandleFunc("POST /api/rag/retrieve", s.handleRetrieve)
	mux.HandleFunc("GET /api/rag/documents", s.handleListDocuments)
	mux.HandleFunc("DELETE /api/rag/documents", s.handleRemoveDocument)

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", zap.String("port", s.config.Port))
	return http.ListenAndServe(":"+s.config.Port, s.Routes())
}

type sendRequest struct {
	Query          string `json:"query"`
	SessionID      string `json:"session_id,omitempty"`
	AgentOverride  string `json:"agent,omitempty"`
	IncludeSources bool   `json:"include_sources,omitempty"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := s.orchestrator.HandleTurn(r.Context(), orchestrator.TurnRequest{
		Query:          req.Query,
		SessionID:      req.SessionID,
		AgentOverride:  req.AgentOverride,
		IncludeSources: req.IncludeSources,
	})
	if err != nil {
		s.logger.Error("chat turn failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		s.writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	if !s.orchestrator.ClearSession(req.SessionID) {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.orchestrator.ListSessions()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": s.orchestrator.ListAgents(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	agent, ok := models.ParseAgent(r.FormValue("agent"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown agent")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	// The extractors work on paths, so stage the upload on disk first.
	tmpDir, err := os.MkdirTemp("", "relay-upload-")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(tmpPath)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		s.writeError(w, http.StatusInternalServerError, "failed to stage upload")
		return
	}
	dst.Close()

	chunks, err := s.loader.LoadFile(tmpPath)
	if err != nil {
		if errors.Is(err, loader.ErrUnsupportedFormat) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to load document", zap.String("file", header.Filename), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored, err := s.index.Add(r.Context(), agent, chunks)
	if err != nil {
		s.logger.Error("failed to index document", zap.String("file", header.Filename), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename": header.Filename,
		"agent":    agent,
		"chunks":   stored,
	})
}

type retrieveRequest struct {
	Query     string   `json:"query"`
	Agent     string   `json:"agent"`
	K         int      `json:"k,omitempty"`
	Threshold *float32 `json:"threshold,omitempty"`
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	agent, ok := models.ParseAgent(req.Agent)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown agent")
		return
	}

	k := req.K
	if k <= 0 {
		k = s.config.TopK
	}
	threshold := s.config.ScoreThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	results, err := s.index.Search(r.Context(), agent, req.Query, k, threshold)
	if err != nil {
		s.logger.Error("retrieval failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sources := make([]models.Source, 0, len(results))
	for _, res := range results {
		sources = append(sources, models.Source{
			Content:  res.Chunk.Text,
			Metadata: res.Chunk.Metadata(),
			Score:    res.Score,
		})
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"agent":   agent,
		"results": sources,
		"count":   len(sources),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	agent, ok := models.ParseAgent(r.URL.Query().Get("agent"))
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown agent")
		return
	}

	docs, err := s.index.ListDocuments(r.Context(), agent)
	if err != nil {
		s.logger.Error("failed to list documents", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"agent":     agent,
		"documents": docs,
	})
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Agent    string `json:"agent"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "agent and filename are required")
		return
	}

	agent, ok := models.ParseAgent(req.Agent)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "unknown agent")
		return
	}

	removed, err := s.index.RemoveDocument(r.Context(), agent, req.Filename)
	if err != nil {
		s.logger.Error("failed to remove document", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if removed == 0 {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"filename":       req.Filename,
		"chunks_removed": removed,
	})
}

type wsMessage struct {
	Type      string      `json:"type"`
	Content   string      `json:"content"`
	SessionID string      `json:"session_id,omitempty"`
	Agent     string      `json:"agent,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendMessage(conn, wsMessage{Type: "error", Content: "invalid message"})
			continue
		}

		s.handleChatMessage(r, conn, msg)
	}
}

func (s *Server) handleChatMessage(r *http.Request, conn *websocket.Conn, msg wsMessage) {
	result, err := s.orchestrator.HandleTurn(r.Context(), orchestrator.TurnRequest{
		Query:          msg.Content,
		SessionID:      msg.SessionID,
		AgentOverride:  msg.Agent,
		IncludeSources: true,
	})
	if err != nil {
		s.sendMessage(conn, wsMessage{Type: "error", Content: err.Error(), SessionID: msg.SessionID})
		return
	}

	s.sendMessage(conn, wsMessage{
		Type:      "response",
		Content:   result.Response,
		SessionID: result.SessionID,
		Agent:     string(result.AgentUsed),
		Data:      result,
	})
}

func (s *Server) sendMessage(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("failed to send websocket message", zap.Error(err))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
