package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/humcp/humcp/internal/schema"
)

// mcpTool is the tool description served by the structured protocol.
type mcpTool struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	InputSchema schema.Params `json:"inputSchema"`
}

// callRequest is the dispatch body of the structured protocol: a tool name
// plus its raw arguments. Arguments stay raw until the tool is resolved so
// numbers can be decoded without float coercion.
type callRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (s *Server) handleMCPTools(w http.ResponseWriter, _ *http.Request) {
	var tools []mcpTool
	for _, ds := range s.reg.All() {
		for _, d := range ds {
			tools = append(tools, mcpTool{
				Name:        d.Name,
				Description: d.Doc(),
				InputSchema: d.Params,
			})
		}
	}
	writeJSON(w, http.StatusOK, schema.OK(map[string]any{"tools": tools}))
}

func (s *Server) handleMCPCall(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, schema.Fail("invalid JSON body: "+err.Error()))
		return
	}
	payload, err := decodeArguments(req.Arguments)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, schema.Fail("invalid arguments: "+err.Error()))
		return
	}
	s.writeCallResult(w, r, req.Name, payload)
}

// decodeArguments parses raw call arguments with number preservation.
// Absent arguments are an empty payload.
func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	payload := map[string]any{}
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
