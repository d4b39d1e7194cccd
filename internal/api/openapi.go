package api

import (
    _ "embed"
    "encoding/json"
    "net/http"
    "strings"
    "sync"

    yaml "gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
    openAPIOnce sync.Once
    openAPIJSON []byte
    openAPIErr  error
)

// openAPIDocJSON converts the embedded YAML once.
func openAPIDocJSON() ([]byte, error) {
    openAPIOnce.Do(func() {
        var obj map[string]any
        if openAPIErr = yaml.Unmarshal(openAPIYAML, &obj); openAPIErr != nil { return }
        openAPIJSON, openAPIErr = json.Marshal(obj)
    })
    return openAPIJSON, openAPIErr
}

// OpenAPIHandler serves the API description as /openapi.json or /openapi.yaml
func (s *Server) OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    if strings.HasSuffix(r.URL.Path, ".yaml") {
        w.Header().Set("Content-Type", "application/yaml")
        _, _ = w.Write(openAPIYAML)
        return
    }
    b, err := openAPIDocJSON()
    if err != nil { writeProblem(w, r, 500, "OpenAPI parse failed", err.Error()); return }
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write(b)
}
