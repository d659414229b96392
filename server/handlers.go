package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/osakit/osarun"
	"github.com/tidwall/pretty"
	"go.uber.org/zap"
)

type runRequest struct {
	Script string `json:"script"`
}

func (a *API) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, `OK`)
}

func (a *API) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONErrorWithCode(w, "method not allowed", fmt.Errorf("invalid method: %v", r.Method), http.StatusMethodNotAllowed)
		return
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorWithCode(w, "error decoding run request", err, http.StatusBadRequest)
		return
	}
	if req.Script == "" {
		writeJSONErrorWithCode(w, "error decoding run request", fmt.Errorf("script not specified"), http.StatusBadRequest)
		return
	}
	a.logger.Info("executing script", zap.Int("bytes", len(req.Script)))
	res, err := a.runner.Run(r.Context(), req.Script)
	a.respondResult(w, res, err)
}

func (a *API) handleRunScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONErrorWithCode(w, "method not allowed", fmt.Errorf("invalid method: %v", r.Method), http.StatusMethodNotAllowed)
		return
	}
	path, err := a.scriptPath(mux.Vars(r)[`name`])
	if err != nil {
		writeJSONErrorWithCode(w, "invalid script name", err, http.StatusBadRequest)
		return
	}
	if !osarun.FileExists(path) {
		writeJSONErrorWithCode(w, "script not found", fmt.Errorf("no such script: %s", filepath.Base(path)), http.StatusNotFound)
		return
	}
	a.logger.Info("executing script", zap.String("script", filepath.Base(path)))
	res, err := a.runner.RunFile(r.Context(), path)
	a.respondResult(w, res, err)
}

func (a *API) respondResult(w http.ResponseWriter, res osarun.Result, err error) {
	if err != nil {
		var timeoutErr *osarun.TimeoutError
		if errors.As(err, &timeoutErr) {
			a.logger.Error("execution timed out", zap.Duration("timeout", timeoutErr.Timeout))
			writeJSONErrorWithCode(w, "execution timed out", err, http.StatusGatewayTimeout)
			return
		}
		a.logger.Error("error running script", zap.Error(err))
		writeJSONError(w, "error running script", err)
		return
	}
	writeJSONResponse(w, http.StatusOK, res)
}

func (a *API) handleListScripts(w http.ResponseWriter, r *http.Request) {
	files, err := osarun.GetScriptFiles(a.scriptsDir)
	if err != nil {
		writeJSONError(w, "error listing scripts", err)
		return
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	writeJSONResponse(w, http.StatusOK, names)
}

func (a *API) handleUploadScript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONErrorWithCode(w, "method not allowed", fmt.Errorf("invalid method: %v", r.Method), http.StatusMethodNotAllowed)
		return
	}
	output, err := a.scriptPath(mux.Vars(r)[`name`])
	if err != nil {
		writeJSONErrorWithCode(w, "invalid script name", err, http.StatusBadRequest)
		return
	}
	// Anything stored here must show up in the library listing, which
	// filters by extension.
	if !osarun.IsScript(output) {
		writeJSONErrorWithCode(w, "invalid script name", fmt.Errorf("unsupported script extension: %s", filepath.Base(output)), http.StatusBadRequest)
		return
	}
	if r.Body == nil {
		writeJSONError(w, "error uploading script", fmt.Errorf("received empty body"))
		return
	}
	defer r.Body.Close()
	file, err := os.Create(output)
	if err != nil {
		writeJSONError(w, "error creating script file", err)
		return
	}
	defer file.Close()
	n, err := io.Copy(file, r.Body)
	if err != nil {
		writeJSONError(w, "error writing script file", err)
		return
	}
	a.logger.Info("script uploaded", zap.String("script", filepath.Base(output)), zap.Int64("bytes", n))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(fmt.Sprintf("%d bytes received.\n", n)))
}

// scriptPath resolves a library script name, rejecting names that escape
// the scripts directory.
func (a *API) scriptPath(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("script name not specified")
	}
	path := filepath.Join(a.scriptsDir, name)
	if !strings.HasPrefix(path, filepath.Clean(a.scriptsDir)+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid script path")
	}
	return path, nil
}

func writeJSONResponse(w http.ResponseWriter, statusCode int, obj interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if jsonBytes, err := json.Marshal(obj); err != nil {
		writeJSONError(w, `could not encode JSON`, err)
	} else {
		w.WriteHeader(statusCode)
		w.Write(pretty.Pretty(jsonBytes))
	}
}

func writeJSONError(w http.ResponseWriter, msg string, err error) {
	writeJSONErrorWithCode(w, msg, err, http.StatusInternalServerError)
}

func writeJSONErrorWithCode(w http.ResponseWriter, msg string, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"error":true,"message":"` + msg + `","detail":"` + err.Error() + `"}`))
}
