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
	r.Spec.Info.Title = "CityRun Quest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the CityRun scavenger-hunt event.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/qr/code
	getQRCode, _ := r.NewOperationContext(http.MethodGet, "/api/qr/code")
	getQRCode.SetSummary("Issue QR token")
	getQRCode.SetDescription("Issues the caller's short-lived opaque QR identity token. Requires Bearer token.")
	getQRCode.AddRespStructure(QRCodeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getQRCode.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getQRCode)

	// POST /api/qr/verify
	postVerify, _ := r.NewOperationContext(http.MethodPost, "/api/qr/verify")
	postVerify.SetSummary("Verify scanned code")
	postVerify.SetDescription("Resolves a scanned QR token with role-gated visibility. Requires Bearer token.")
	postVerify.AddReqStructure(QRScanRequest{})
	postVerify.AddRespStructure(QRVerifyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postVerify)

	// POST /api/qr/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/qr/join")
	postJoin.SetSummary("Join via scanned code")
	postJoin.SetDescription("Joins the team whose captain's code was scanned. Requires Bearer token.")
	postJoin.AddReqStructure(QRScanRequest{})
	postJoin.AddRespStructure(QRJoinResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postJoin)

	// POST /api/teams
	postTeam, _ := r.NewOperationContext(http.MethodPost, "/api/teams")
	postTeam.SetSummary("Create team")
	postTeam.SetDescription("Creates a team with the caller as captain and records the initial coin grant.")
	postTeam.AddReqStructure(CreateTeamRequest{})
	postTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postTeam)

	// GET /api/teams/me
	getMyTeam, _ := r.NewOperationContext(http.MethodGet, "/api/teams/me")
	getMyTeam.SetSummary("My team")
	getMyTeam.SetDescription("Returns the caller's team roster with freshly computed totals.")
	getMyTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMyTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMyTeam)

	// PATCH /api/teams/{teamID}
	patchTeam, _ := r.NewOperationContext(http.MethodPatch, "/api/teams/{teamID}")
	patchTeam.SetSummary("Rename team")
	patchTeam.SetDescription("Renames a team. Captain only; names are unique per event.")
	patchTeam.AddReqStructure(RenameTeamRequest{})
	patchTeam.AddRespStructure(TeamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	patchTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(patchTeam)

	// DELETE /api/teams/{teamID}
	deleteTeam, _ := r.NewOperationContext(http.MethodDelete, "/api/teams/{teamID}")
	deleteTeam.SetSummary("Delete team")
	deleteTeam.SetDescription("Deletes a team. Captain only.")
	deleteTeam.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteTeam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(deleteTeam)

	// GET /api/quest/
	getQuest, _ := r.NewOperationContext(http.MethodGet, "/api/quest/")
	getQuest.SetSummary("List blocks")
	getQuest.SetDescription("Lists the blocks visible to the caller's team, filtered by team language. Pass expand=riddles for the full tree.")
	getQuest.AddRespStructure(QuestResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getQuest.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getQuest)

	// GET /api/quest/{blockID}
	getBlock, _ := r.NewOperationContext(http.MethodGet, "/api/quest/{blockID}")
	getBlock.SetSummary("Get block")
	getBlock.SetDescription("Returns one block with riddles and per-riddle team status.")
	getBlock.AddRespStructure(QuestResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getBlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	getBlock.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getBlock)

	// POST /api/quest/riddles/{riddleID}/check-answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/quest/riddles/{riddleID}/check-answer")
	postAnswer.SetSummary("Check answer")
	postAnswer.SetDescription("Submits an answer for a riddle. Wrong answers are recorded but never scored; a second correct answer is rejected.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postAnswer)

	// GET /api/quest/riddles/{riddleID}/hint
	getHint, _ := r.NewOperationContext(http.MethodGet, "/api/quest/riddles/{riddleID}/hint")
	getHint.SetSummary("Request hint")
	getHint.SetDescription("Buys the riddle's hint once; repeat requests are free. Fails when the team cannot afford it.")
	getHint.AddRespStructure(HintResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	getHint.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getHint)

	// POST /api/quest/insiders/attendance/mark
	postMark, _ := r.NewOperationContext(http.MethodPost, "/api/quest/insiders/attendance/mark")
	postMark.SetSummary("Mark insider attendance")
	postMark.SetDescription("Records an insider's on-site confirmation for a team that already solved the riddle.")
	postMark.AddReqStructure(MarkAttendanceRequest{})
	postMark.AddRespStructure(MarkAttendanceResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postMark.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postMark.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postMark)

	// GET /api/quest/leaderboard
	getBoard, _ := r.NewOperationContext(http.MethodGet, "/api/quest/leaderboard")
	getBoard.SetSummary("Leaderboard")
	getBoard.SetDescription("Public team ranking by coins*0.5 + score, excluding near-zero participants.")
	getBoard.AddRespStructure([]LeaderboardEntry{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getBoard)

	// GET /api/quest/commands/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/quest/commands/stats")
	getStats.SetSummary("Team stats")
	getStats.SetDescription("Per-team score/coins/solve-count roster. Organizer only.")
	getStats.AddRespStructure([]TeamStats{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getStats)

	// GET /api/quest/events/{eventName}/answers
	getAnswers, _ := r.NewOperationContext(http.MethodGet, "/api/quest/events/{eventName}/answers")
	getAnswers.SetSummary("Answers export")
	getAnswers.SetDescription("Full block/riddle tree with accepted answers and per-riddle solve rates. Organizer only.")
	getAnswers.AddRespStructure(AnswersExport{}, openapi.WithHTTPStatus(http.StatusOK))
	getAnswers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(getAnswers)

	// GET /api/quest/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/quest/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of team updates. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Console login")
	postLogin.SetDescription("Authenticate with email and password. Sets admin_session cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Console logout")
	postLogout.SetDescription("Clears the console session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/admin/me")
	getMe.SetSummary("Current console user")
	getMe.SetDescription("Returns the currently authenticated console user.")
	getMe.AddRespStructure(AdminMeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

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
