package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stoewer/go-strcase"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	apperrors "github.com/kagent-dev/zendesk-mcp/pkg/errors"
	"github.com/kagent-dev/zendesk-mcp/pkg/tools"
)

type errorEnvelope struct {
	Error string `json:"error"`
}

type resultEnvelope struct {
	Result any `json:"result"`
}

func (a *App) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"tools": a.Dispatcher.Tools()})
}

// handleCallTool runs one tool outside any session. The path accepts the
// tool name in snake, kebab or camel case.
func (a *App) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := a.resolveToolName(mux.Vars(r)["name"])

	args, err := decodeArguments(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "Invalid JSON body: " + err.Error()})
		return
	}

	result, err := a.Dispatcher.Call(r.Context(), name, args)
	if err != nil {
		status := callStatus(err)
		if status >= http.StatusInternalServerError {
			ctrllog.FromContext(r.Context()).WithName("compat").Info("Tool call failed", "tool", name, "error", err.Error())
		}
		writeJSON(w, status, errorEnvelope{Error: tools.ErrorText(err)})
		return
	}
	writeJSON(w, http.StatusOK, resultEnvelope{Result: result})
}

func (a *App) resolveToolName(raw string) string {
	if _, ok := a.Dispatcher.Registry().Lookup(raw); ok {
		return raw
	}
	return strcase.SnakeCase(raw)
}

func callStatus(err error) int {
	switch {
	case apperrors.IsCode(err, apperrors.ErrCodeUnknownTool):
		return http.StatusNotFound
	case apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument),
		apperrors.IsCode(err, apperrors.ErrCodeMissingArgs):
		return http.StatusBadRequest
	case apperrors.IsCode(err, apperrors.ErrCodeConfiguration):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// decodeArguments reads a flat JSON object. An empty body is an empty
// argument set.
func decodeArguments(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	args := map[string]any{}
	if len(data) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return nil, err
	}
	if args == nil {
		return map[string]any{}, nil
	}
	return args, nil
}
