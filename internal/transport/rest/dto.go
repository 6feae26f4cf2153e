package rest

import (
	"time"

	"github.com/matekasse/matekasse-backend/internal/domain"
)

type userResponse struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	Balance   int64   `json:"balance"`
	Active    bool    `json:"active"`
	Internal  bool    `json:"internal"`
	VoucherID *string `json:"voucherId"`
	CreatedAt string  `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Balance:   u.Balance,
		Active:    u.Active,
		Internal:  u.Internal,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
	if u.VoucherID != nil {
		s := u.VoucherID.String()
		resp.VoucherID = &s
	}
	return resp
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type aliasResponse struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	ApplicationID string `json:"applicationId"`
	AppUserID     string `json:"appUserId"`
}

func toAliasResponse(a *domain.Alias) aliasResponse {
	return aliasResponse{
		ID:            a.ID.String(),
		UserID:        a.UserID.String(),
		ApplicationID: a.ApplicationID.String(),
		AppUserID:     a.AppUserID,
	}
}

type transactionResponse struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Amount     int64  `json:"amount"`
	Reason     string `json:"reason"`
	CreatedAt  string `json:"createdAt"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:         tx.ID.String(),
		SenderID:   tx.SenderID.String(),
		ReceiverID: tx.ReceiverID.String(),
		Amount:     tx.Amount,
		Reason:     tx.Reason,
		CreatedAt:  tx.CreatedAt.Format(time.RFC3339),
	}
}

type voteResponse struct {
	VoterID string `json:"voterId"`
	Approve bool   `json:"approve"`
}

func toVoteResponses(votes []domain.Vote) []voteResponse {
	out := make([]voteResponse, 0, len(votes))
	for _, v := range votes {
		out = append(out, voteResponse{VoterID: v.VoterID.String(), Approve: v.Approve})
	}
	return out
}

type refundResponse struct {
	ID            string         `json:"id"`
	CreatorID     string         `json:"creatorId"`
	Amount        int64          `json:"amount"`
	Reason        string         `json:"reason"`
	State         string         `json:"state"`
	TransactionID *string        `json:"transactionId"`
	Votes         []voteResponse `json:"votes"`
	Tally         int            `json:"tally"`
	CreatedAt     string         `json:"createdAt"`
}

func toRefundResponse(ref *domain.Refund) refundResponse {
	resp := refundResponse{
		ID:        ref.ID.String(),
		CreatorID: ref.CreatorID.String(),
		Amount:    ref.Amount,
		Reason:    ref.Reason,
		State:     ref.State.String(),
		Votes:     toVoteResponses(ref.Votes),
		Tally:     domain.Tally(ref.Votes),
		CreatedAt: ref.CreatedAt.Format(time.RFC3339),
	}
	if ref.TransactionID != nil {
		s := ref.TransactionID.String()
		resp.TransactionID = &s
	}
	return resp
}

type pollResponse struct {
	ID        string         `json:"id"`
	CreatorID string         `json:"creatorId"`
	State     string         `json:"state"`
	Votes     []voteResponse `json:"votes"`
	Tally     int            `json:"tally"`
	CreatedAt string         `json:"createdAt"`
}

func toPollResponse(p *domain.MembershipPoll) pollResponse {
	return pollResponse{
		ID:        p.ID.String(),
		CreatorID: p.CreatorID.String(),
		State:     p.State.String(),
		Votes:     toVoteResponses(p.Votes),
		Tally:     domain.Tally(p.Votes),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

type participantResponse struct {
	UserID   string `json:"userId"`
	Quantity int64  `json:"quantity"`
}

type communismResponse struct {
	ID           string                `json:"id"`
	CreatorID    string                `json:"creatorId"`
	Amount       int64                 `json:"amount"`
	Description  string                `json:"description"`
	State        string                `json:"state"`
	Participants []participantResponse `json:"participants"`
	TotalShares  int64                 `json:"totalShares"`
	CreatedAt    string                `json:"createdAt"`
}

func toCommunismResponse(c *domain.Communism) communismResponse {
	participants := make([]participantResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, participantResponse{
			UserID:   p.UserID.String(),
			Quantity: p.Quantity,
		})
	}
	return communismResponse{
		ID:           c.ID.String(),
		CreatorID:    c.CreatorID.String(),
		Amount:       c.Amount,
		Description:  c.Description,
		State:        c.State.String(),
		Participants: participants,
		TotalShares:  c.TotalShares(),
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

type consumableResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Symbol      string `json:"symbol"`
	Stock       int64  `json:"stock"`
}

func toConsumableResponse(c *domain.Consumable) consumableResponse {
	return consumableResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		Symbol:      c.Symbol,
		Stock:       c.Stock,
	}
}
