package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hamed0406/integrationprobe/internal/domain"
)

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// wireRequest accepts non-string config scalars ("port": 2775) and turns
// them into their text form.
type wireRequest struct {
	IntegrationID   string         `json:"integrationId"`
	IntegrationName string         `json:"integrationName"`
	Config          map[string]any `json:"config"`
}

func decodeProbeRequest(body io.Reader) (domain.ProbeRequest, error) {
	var in wireRequest
	dec := json.NewDecoder(body)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return domain.ProbeRequest{}, fmt.Errorf("invalid JSON body: %w", err)
	}

	req := domain.ProbeRequest{IntegrationID: in.IntegrationID, IntegrationName: in.IntegrationName}
	if in.Config == nil {
		return req, nil
	}
	req.Config = make(map[string]string, len(in.Config))
	for k, v := range in.Config {
		switch val := v.(type) {
		case nil:
		case string:
			req.Config[k] = val
		case json.Number:
			req.Config[k] = val.String()
		case bool:
			req.Config[k] = fmt.Sprint(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				return domain.ProbeRequest{}, fmt.Errorf("config %q: %w", k, err)
			}
			req.Config[k] = string(b)
		}
	}
	return req, nil
}
