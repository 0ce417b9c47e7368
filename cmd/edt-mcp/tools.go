package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Infuseting/MCPEdtUnicaen/internal/timetable"
)

func registerTools(s *server.MCPServer, svc *timetable.Service) {
	s.AddTool(nextClassTool(), handleNextClass(svc))
	s.AddTool(roomAvailabilityTool(), handleRoomAvailability(svc))
	s.AddTool(professorLocationTool(), handleProfessorLocation(svc))
}

func nextClassTool() mcp.Tool {
	return mcp.NewTool("prochain_cours",
		mcp.WithDescription("Donne le prochain cours et son heure à partir du nom d'un EDT (prof/salle/student/univ). Si aucun nom n'est fourni, utilise MY_EDT si configuré. Les dates sont au format ISO complet (ex: 2025-10-25T08:00:00)."),
		mcp.WithString("nom",
			mcp.Description("Nom à rechercher dans l'annuaire (ou 'moi'/'me'/'self' pour l'EDT configuré). Optionnel."),
		),
	)
}

func handleNextClass(svc *timetable.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		nom, _ := args["nom"].(string)
		return toolResult(svc.NextClass(ctx, nom, sessionIdentity(ctx)))
	}
}

func roomAvailabilityTool() mcp.Tool {
	return mcp.NewTool("disponibilite_salle",
		mcp.WithDescription("Indique si une salle est disponible maintenant et jusqu'à quelle heure. Si une heure de début et/ou de fin est fournie (ex: '08:00' ou ISO), limite la recherche à cette plage horaire. Les réponses incluent les horaires au format ISO complet."),
		mcp.WithString("nom",
			mcp.Required(),
			mcp.Description("Nom de la salle à rechercher"),
		),
		mcp.WithString("start",
			mcp.Description("Début de la plage: 'HH:MM', date ou date-heure ISO, 'aujourd'hui'/'demain'. Optionnel."),
		),
		mcp.WithString("end",
			mcp.Description("Fin de la plage, mêmes formats que start. Optionnel."),
		),
	)
}

func handleRoomAvailability(svc *timetable.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		nom, _ := args["nom"].(string)
		start, _ := args["start"].(string)
		end, _ := args["end"].(string)
		return toolResult(svc.RoomAvailability(ctx, nom, start, end))
	}
}

func professorLocationTool() mcp.Tool {
	return mcp.NewTool("ou_est_prof",
		mcp.WithDescription("Donne la localisation actuelle d'un enseignant (salle / en ligne) ou son prochain lieu."),
		mcp.WithString("nom",
			mcp.Required(),
			mcp.Description("Nom de l'enseignant à rechercher"),
		),
	)
}

func handleProfessorLocation(svc *timetable.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, _ := req.Params.Arguments.(map[string]any)
		nom, _ := args["nom"].(string)
		return toolResult(svc.ProfessorLocation(ctx, nom))
	}
}

// toolResult renders an answer payload as the tool's text content. Failure
// answers stay ok:false JSON rather than protocol errors so clients always
// get a machine-readable reason.
func toolResult(answer any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal answer: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// Session identity: SSE clients may pin the caller's timetable name with a
// header, checked before the process-wide MY_EDT fallback.

type sessionIdentityKey struct{}

var identityHeaders = []string{"MY_EDT", "My-Edt", "my_edt", "X-MY-EDT"}

func withSessionIdentity(ctx context.Context, r *http.Request) context.Context {
	for _, h := range identityHeaders {
		if v := r.Header.Get(h); v != "" {
			return context.WithValue(ctx, sessionIdentityKey{}, v)
		}
	}
	return ctx
}

func sessionIdentity(ctx context.Context) string {
	v, _ := ctx.Value(sessionIdentityKey{}).(string)
	return v
}
