package handlers

import (
	"encoding/json"
	"net/http"

	"shortgen/internal/engine"
	"shortgen/internal/infra"
)

// App is the handler container: it holds the orchestration engine and the
// response helpers shared by every endpoint.
type App struct {
	Engine *engine.Engine
	Logger infra.Logger
}

func NewApp(eng *engine.Engine, logger infra.Logger) *App {
	return &App{Engine: eng, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
