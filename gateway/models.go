package gateway

import (
	"net/http"

	"github.com/invopop/jsonschema"

	"github.com/randalmurphal/llmroute/catalog"
)

// modelView is the wire shape of one catalog entry.
type modelView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Tier         string   `json:"tier"`
	MaxTokens    int      `json:"max_tokens"`
	Capabilities []string `json:"capabilities,omitempty"`
}

type modelsResponse struct {
	Models []modelView `json:"models"`
}

// handleModels lists the catalog models the caller's tier may use.
func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	acct, err := s.authenticate(r)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	eligible := s.cat.ModelsForTier(acct.Tier)
	resp := modelsResponse{Models: make([]modelView, 0, len(eligible))}
	for _, m := range eligible {
		resp.Models = append(resp.Models, viewOf(m))
	}
	writeJSON(w, http.StatusOK, resp)
}

func viewOf(m catalog.Model) modelView {
	return modelView{
		ID:           m.ID,
		Name:         m.Name,
		Provider:     m.Provider,
		Tier:         string(m.Tier),
		MaxTokens:    m.MaxTokens,
		Capabilities: m.Capabilities,
	}
}

// handleSchema serves the JSON Schema for the chat request body so clients
// can validate payloads before sending them. No auth: the schema is not
// caller specific.
func (s *Server) handleSchema(w http.ResponseWriter, _ *http.Request) {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(&ChatRequest{})
	writeJSON(w, http.StatusOK, schema)
}
