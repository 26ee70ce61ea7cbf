package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "CityGuessr API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Room and game-session API for the CityGuessr guessing game. " +
		"Gameplay itself runs over the WebSocket message protocol.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /ws/echo
	getWSEcho, _ := r.NewOperationContext(http.MethodGet, "/ws/echo")
	getWSEcho.SetSummary("WebSocket echo")
	getWSEcho.SetDescription("Upgrades to a WebSocket connection that echoes messages back.")
	getWSEcho.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWSEcho)

	// POST /api/game/{room}
	createRoom, _ := r.NewOperationContext(http.MethodPost, "/api/game/{room}")
	createRoom.SetSummary("Create a room")
	createRoom.SetDescription("Creates a new game room under the given id. Ids are caller-chosen and unique.")
	createRoom.AddRespStructure(CreateRoomResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	createRoom.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusInternalServerError))
	_ = r.AddOperation(createRoom)

	// GET /api/game/{room}
	joinRoom, _ := r.NewOperationContext(http.MethodGet, "/api/game/{room}")
	joinRoom.SetSummary("Join a room")
	joinRoom.SetDescription("Upgrades to the game's WebSocket message protocol. " +
		"Pass username and userId as query parameters; an unknown room closes the socket with a policy-violation code.")
	joinRoom.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	joinRoom.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(joinRoom)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
