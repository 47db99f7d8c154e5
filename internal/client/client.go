// Package client adapts the SwipeBackend gRPC API to the swipe engine's
// Discovery, DecisionStore and AccountSource ports for one user.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/oggyb/muzz-swipe/internal/domain"
	"github.com/oggyb/muzz-swipe/internal/logger"
	pb "github.com/oggyb/muzz-swipe/internal/proto/swipe"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/swipe"
)

type Client struct {
	rpc     pb.SwipeBackendClient
	actorID string
	log     *slog.Logger
}

var (
	_ swipe.Discovery     = (*Client)(nil)
	_ swipe.DecisionStore = (*Client)(nil)
	_ swipe.AccountSource = (*Client)(nil)
)

// Dial opens a plaintext connection to the backend.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// New binds a client to actorID over cc.
func New(cc grpc.ClientConnInterface, actorID string) *Client {
	return &Client{
		rpc:     pb.NewSwipeBackendClient(cc),
		actorID: actorID,
		log:     logger.Named("client").With("actor", actorID),
	}
}

func (c *Client) FetchCandidates(ctx context.Context, exclude []string, limit int) ([]domain.Profile, error) {
	resp, err := c.rpc.FetchCandidates(ctx, &pb.FetchCandidatesRequest{
		ActorUserId: c.actorID,
		ExcludeIds:  exclude,
		Limit:       int32(limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.Profile, 0, len(resp.GetProfiles()))
	for _, p := range resp.GetProfiles() {
		out = append(out, domain.Profile{ID: p.GetId(), Attributes: p.Attributes})
	}
	return out, nil
}

// RecordDecision classifies backend refusals: AlreadyExists and NotFound
// become swipe.ErrDecisionConflict, ResourceExhausted becomes
// swipe.ErrQuotaRejected. Anything else is returned as is.
func (c *Client) RecordDecision(ctx context.Context, profileID string, d domain.Direction, idempotencyKey string) (swipe.Receipt, error) {
	resp, err := c.rpc.RecordDecision(ctx, &pb.RecordDecisionRequest{
		ActorUserId:    c.actorID,
		ProfileId:      profileID,
		Direction:      string(d),
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		return swipe.Receipt{}, classify(err)
	}
	return swipe.Receipt{Accepted: resp.GetAccepted(), Matched: resp.GetMatched()}, nil
}

func (c *Client) LoadAccount(ctx context.Context) (swipe.Account, error) {
	acct, err := c.rpc.GetAccount(ctx, &pb.GetAccountRequest{ActorUserId: c.actorID})
	if err != nil {
		return swipe.Account{}, err
	}
	c.log.Debug("account loaded", "tier", acct.PlanTier, "date", acct.LastResetDate)

	return swipe.Account{
		Quota: quota.State{
			Date:                quota.Day(acct.LastResetDate),
			PlanTier:            acct.PlanTier,
			SwipesUsed:          int(acct.SwipesUsed),
			SwipeLimit:          int(acct.SwipeLimit),
			SuperlikesAvailable: int(acct.SuperlikesAvailable),
		},
		TimeZone: acct.TimeZone,
	}, nil
}

func classify(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.AlreadyExists, codes.NotFound:
		return fmt.Errorf("%w: %s", swipe.ErrDecisionConflict, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", swipe.ErrQuotaRejected, st.Message())
	default:
		return err
	}
}
