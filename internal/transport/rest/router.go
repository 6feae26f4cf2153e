package rest

import (
	"net/http"

	"github.com/matekasse/matekasse-backend/internal/transport/middleware"
)

// Handlers bundles all REST handlers mounted by the router.
type Handlers struct {
	Health      *HealthHandler
	Users       *UserHandler
	Ledger      *TransactionHandler
	Refunds     *RefundHandler
	Membership  *MembershipHandler
	Communisms  *CommunismHandler
	Consumables *ConsumableHandler
}

// NewRouter mounts all endpoints. Health probes are open; everything
// under /v1 requires a valid request signature.
func NewRouter(h Handlers, authed middleware.Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /live", h.Health.Live)
	mux.HandleFunc("GET /ready", h.Health.Ready)
	mux.HandleFunc("GET /health", h.Health.Health)

	api := http.NewServeMux()

	api.HandleFunc("POST /v1/createUser", h.Users.CreateUser)
	api.HandleFunc("POST /v1/addAlias", h.Users.AddAlias)
	api.HandleFunc("POST /v1/deleteAlias", h.Users.DeleteAlias)
	api.HandleFunc("POST /v1/startVouch", h.Users.StartVouch)
	api.HandleFunc("POST /v1/endVouch", h.Users.EndVouch)
	api.HandleFunc("POST /v1/updateName", h.Users.UpdateName)
	api.HandleFunc("POST /v1/disableUser", h.Users.DisableUser)
	api.HandleFunc("GET /v1/getUser", h.Users.GetUser)
	api.HandleFunc("GET /v1/getUsers", h.Users.GetUsers)

	api.HandleFunc("POST /v1/transfer", h.Ledger.Transfer)
	api.HandleFunc("GET /v1/getTransactions", h.Ledger.GetTransactions)

	api.HandleFunc("POST /v1/startRefund", h.Refunds.Start)
	api.HandleFunc("POST /v1/cancelRefund", h.Refunds.Cancel)
	api.HandleFunc("POST /v1/voteRefund", h.Refunds.Vote)
	api.HandleFunc("POST /v1/retractRefundVote", h.Refunds.Retract)
	api.HandleFunc("GET /v1/listRefunds", h.Refunds.List)

	api.HandleFunc("POST /v1/requestMembership", h.Membership.Request)
	api.HandleFunc("POST /v1/voteMembership", h.Membership.Vote)
	api.HandleFunc("POST /v1/retractMembershipVote", h.Membership.Retract)
	api.HandleFunc("GET /v1/listMembershipPolls", h.Membership.List)

	api.HandleFunc("POST /v1/startCommunism", h.Communisms.Start)
	api.HandleFunc("POST /v1/joinCommunism", h.Communisms.Join)
	api.HandleFunc("POST /v1/leaveCommunism", h.Communisms.Leave)
	api.HandleFunc("POST /v1/settleCommunism", h.Communisms.Settle)
	api.HandleFunc("POST /v1/cancelCommunism", h.Communisms.Cancel)
	api.HandleFunc("GET /v1/listCommunisms", h.Communisms.List)

	api.HandleFunc("GET /v1/getConsumables", h.Consumables.GetConsumables)
	api.HandleFunc("POST /v1/consume", h.Consumables.Consume)

	mux.Handle("/v1/", authed(api))

	return mux
}
