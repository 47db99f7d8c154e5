package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/muzz-swipe/internal/app"
	"github.com/oggyb/muzz-swipe/internal/cache"
	"github.com/oggyb/muzz-swipe/internal/db"
	"github.com/oggyb/muzz-swipe/internal/domain"
	svcErr "github.com/oggyb/muzz-swipe/internal/errors"
	pb "github.com/oggyb/muzz-swipe/internal/proto/swipe"
	"github.com/oggyb/muzz-swipe/internal/quota"
	"github.com/oggyb/muzz-swipe/internal/repository"
)

const (
	defaultLimit = 10
	maxLimit     = 50

	maxResetAttempts = 3
)

// Service implements the SwipeBackend gRPC API: Discovery, decision
// persistence and the authoritative quota account.
type Service struct {
	appCtx       *app.AppContext
	decisionRepo *repository.DecisionRepository
	accountRepo  *repository.AccountRepository
	profileRepo  *repository.ProfileRepository

	timeZone   string
	receiptTTL time.Duration
	now        func() time.Time

	pb.UnimplementedSwipeBackendServer
}

type Option func(*Service)

// WithClock overrides the wall clock used for quota days.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewMatchmakingService creates the service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via the decision, account and profile repositories)
//   - RedisCache for idempotency receipts
//   - the plan catalog for new accounts and daily resets
func NewMatchmakingService(appCtx *app.AppContext, opts ...Option) *Service {
	s := &Service{
		appCtx:       appCtx,
		decisionRepo: repository.NewDecisionRepository(appCtx.DB),
		accountRepo:  repository.NewAccountRepository(appCtx.DB),
		profileRepo:  repository.NewProfileRepository(appCtx.DB),
		timeZone:     "UTC",
		receiptTTL:   24 * time.Hour,
		now:          time.Now,
	}
	if cfg := appCtx.Config; cfg != nil {
		if cfg.Engine.TimeZone != "" {
			s.timeZone = cfg.Engine.TimeZone
		}
		if cfg.Quota.IdempotencyTTL > 0 {
			s.receiptTTL = cfg.Quota.IdempotencyTTL
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCandidates returns profiles the actor has not decided on.
//
// Behavior:
//   - Skips the actor, inactive users, ids in exclude_ids and users the
//     actor already decided on.
//   - limit defaults to 10 and is capped at 50.
//   - Non-numeric exclude ids (client-side reserve profiles) are ignored.
//
// Example:
//
//	svc.FetchCandidates(ctx, &pb.FetchCandidatesRequest{ActorUserId: "1", Limit: 10})
func (s *Service) FetchCandidates(ctx context.Context, req *pb.FetchCandidatesRequest) (*pb.FetchCandidatesResponse, error) {
	s.appCtx.Logger.Debug("FetchCandidates called", "actor", req.GetActorUserId(), "exclude", len(req.GetExcludeIds()), "limit", req.GetLimit())

	actorID, err := strconv.ParseUint(req.GetActorUserId(), 10, 64)
	if err != nil {
		return nil, svcErr.InvalidArgument("actor_user_id must be a valid uint64")
	}

	limit := int(req.GetLimit())
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}

	exclude := make([]uint64, 0, len(req.GetExcludeIds()))
	for _, raw := range req.GetExcludeIds() {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			exclude = append(exclude, id)
		}
	}

	users, err := s.profileRepo.Candidates(ctx, actorID, exclude, limit)
	if err != nil {
		s.appCtx.Logger.Error("Candidates failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.FetchCandidatesResponse{Profiles: make([]*pb.Profile, 0, len(users))}
	for _, u := range users {
		resp.Profiles = append(resp.Profiles, toProfile(u))
	}

	s.appCtx.Logger.Debug("FetchCandidates result", "count", len(resp.Profiles))
	return resp, nil
}

// RecordDecision persists one decision and reports whether it produced a match.
//
// Behavior:
//   - A receipt cached under the idempotency key is replayed without touching the DB.
//   - Otherwise, in one transaction: a decision already stored for the pair is
//     replayed when its key matches and refused with AlreadyExists when it does
//     not; the account gets its lazy daily reset; one unit of quota is taken
//     (ResourceExhausted when none is left); the decision is inserted.
//   - matched is true when a like/superlike meets an existing like from the recipient.
//
// Example:
//
//	svc.RecordDecision(ctx, &pb.RecordDecisionRequest{ActorUserId: "1", ProfileId: "2", Direction: "like", IdempotencyKey: key})
func (s *Service) RecordDecision(ctx context.Context, req *pb.RecordDecisionRequest) (*pb.RecordDecisionResponse, error) {
	s.appCtx.Logger.Debug(
		"RecordDecision called",
		"actor", req.GetActorUserId(),
		"profile", req.GetProfileId(),
		"direction", req.GetDirection(),
	)

	actorID, err := strconv.ParseUint(req.GetActorUserId(), 10, 64)
	if err != nil {
		return nil, svcErr.InvalidArgument("actor_user_id must be a valid uint64")
	}
	direction, err := domain.ParseDirection(req.GetDirection())
	if err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	key := req.GetIdempotencyKey()
	if key == "" {
		return nil, svcErr.InvalidArgument("idempotency_key is required")
	}
	recipientID, err := strconv.ParseUint(req.GetProfileId(), 10, 64)
	if err != nil {
		// not one of ours, e.g. a client reserve profile
		return nil, svcErr.NotFound("unknown profile")
	}
	if actorID == recipientID {
		return nil, svcErr.InvalidArgument("cannot decide on yourself")
	}

	// replay from cache
	if r, ok, err := s.appCtx.RedisCache.GetReceipt(ctx, actorID, key); err != nil {
		s.appCtx.Logger.Warn("receipt lookup failed", "err", err)
	} else if ok {
		s.appCtx.Logger.Debug("RecordDecision replayed from cache", "actor", actorID, "profile", recipientID)
		return &pb.RecordDecisionResponse{Accepted: r.Accepted, Matched: r.Matched}, nil
	}

	active, err := s.profileRepo.IsActive(ctx, recipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if !active {
		return nil, svcErr.NotFound("unknown profile")
	}

	var receipt cache.Receipt
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		decisions := s.decisionRepo.WithTx(tx)

		existing, err := decisions.Find(ctx, actorID, recipientID)
		switch {
		case err == nil && existing.IdempotencyKey == key:
			receipt, err = s.replay(ctx, decisions, existing)
			return err
		case err == nil:
			return repository.ErrDuplicate
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if _, err := s.loadAccount(ctx, s.accountRepo.WithTx(tx), actorID); err != nil {
			return err
		}
		if err := s.consume(ctx, s.accountRepo.WithTx(tx), actorID, direction.Kind()); err != nil {
			return err
		}

		if err := decisions.Create(ctx, &db.Decision{
			ActorID:        actorID,
			RecipientID:    recipientID,
			Direction:      string(direction),
			Liked:          direction.Liked(),
			IdempotencyKey: key,
		}); err != nil {
			return err
		}

		receipt.Accepted = true
		if direction.Liked() {
			if receipt.Matched, err = decisions.HasLiked(ctx, recipientID, actorID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// an earlier attempt with the same key may have committed while this
		// one was running; its receipt is the answer
		r, ok := s.replayCommitted(ctx, actorID, recipientID, key)
		switch {
		case ok:
			s.appCtx.Logger.Debug("RecordDecision lost race to same key", "actor", actorID, "profile", recipientID, "err", err)
			receipt = r
		case errors.Is(err, repository.ErrQuotaExhausted):
			return nil, svcErr.ResourceExhausted(direction.Kind().String())
		default:
			s.appCtx.Logger.Debug("RecordDecision refused", "actor", actorID, "profile", recipientID, "err", err)
			return nil, svcErr.Map(err)
		}
	}

	if _, err := s.appCtx.RedisCache.PutReceipt(ctx, actorID, key, receipt, s.receiptTTL); err != nil {
		s.appCtx.Logger.Warn("receipt store failed", "err", err)
	}

	s.appCtx.Logger.Debug("RecordDecision result", "actor", actorID, "profile", recipientID, "matched", receipt.Matched)
	return &pb.RecordDecisionResponse{Accepted: receipt.Accepted, Matched: receipt.Matched}, nil
}

// GetAccount returns the actor's quota after the lazy daily reset, creating
// a default-tier account on first use.
//
// Example:
//
//	svc.GetAccount(ctx, &pb.GetAccountRequest{ActorUserId: "1"})
func (s *Service) GetAccount(ctx context.Context, req *pb.GetAccountRequest) (*pb.Account, error) {
	s.appCtx.Logger.Debug("GetAccount called", "actor", req.GetActorUserId())

	actorID, err := strconv.ParseUint(req.GetActorUserId(), 10, 64)
	if err != nil {
		return nil, svcErr.InvalidArgument("actor_user_id must be a valid uint64")
	}

	var acct *db.Account
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		acct, err = s.loadAccount(ctx, s.accountRepo.WithTx(tx), actorID)
		return err
	})
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &pb.Account{
		PlanTier:            acct.PlanTier,
		SwipeLimit:          int64(acct.SwipeLimit),
		SwipesUsed:          int64(acct.SwipesUsed),
		SuperlikesAvailable: int64(acct.SuperlikesAvailable),
		LastResetDate:       acct.LastResetDate,
		TimeZone:            acct.TimeZone,
	}, nil
}

// loadAccount finds or creates the account and applies the daily reset in
// the account's own time zone.
func (s *Service) loadAccount(ctx context.Context, accounts *repository.AccountRepository, actorID uint64) (*db.Account, error) {
	catalog := s.appCtx.Catalog
	plan, _ := catalog.Lookup(catalog.DefaultTier())

	acct, err := accounts.FindOrCreate(ctx, actorID, plan, s.timeZone, quota.DayOf(s.now(), s.location(s.timeZone)))
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		st := repository.ToState(acct)
		stale := acct.LastResetDate
		today := quota.DayOf(s.now(), s.location(acct.TimeZone))
		if !st.ResetFor(today, catalog.Resolve(st)) {
			return acct, nil
		}
		repository.ApplyState(acct, st)
		applied, err := accounts.SaveReset(ctx, acct, stale)
		if err != nil {
			return nil, err
		}
		if applied {
			s.appCtx.Logger.Debug("quota reset", "actor", actorID, "date", today, "tier", acct.PlanTier)
			return acct, nil
		}
		if attempt == maxResetAttempts {
			return nil, fmt.Errorf("reset account %d: row keeps changing", actorID)
		}
		// another session reset first; its counters win
		if acct, err = accounts.Find(ctx, actorID); err != nil {
			return nil, err
		}
	}
}

// replayCommitted looks outside any transaction for a decision already
// stored under key.
func (s *Service) replayCommitted(ctx context.Context, actorID, recipientID uint64, key string) (cache.Receipt, bool) {
	if ctx.Err() != nil {
		return cache.Receipt{}, false
	}
	existing, err := s.decisionRepo.Find(ctx, actorID, recipientID)
	if err != nil || existing.IdempotencyKey != key {
		return cache.Receipt{}, false
	}
	r, err := s.replay(ctx, s.decisionRepo, existing)
	if err != nil {
		return cache.Receipt{}, false
	}
	return r, true
}

func (s *Service) consume(ctx context.Context, accounts *repository.AccountRepository, actorID uint64, k domain.Kind) error {
	if k == domain.KindSuperlike {
		return accounts.ConsumeSuperlike(ctx, actorID)
	}
	return accounts.ConsumeSwipe(ctx, actorID)
}

// replay rebuilds the receipt of a decision applied earlier under the same key.
func (s *Service) replay(ctx context.Context, decisions *repository.DecisionRepository, d *db.Decision) (cache.Receipt, error) {
	r := cache.Receipt{Accepted: true}
	if d.Liked {
		matched, err := decisions.HasLiked(ctx, d.RecipientID, d.ActorID)
		if err != nil {
			return cache.Receipt{}, err
		}
		r.Matched = matched
	}
	return r, nil
}

func (s *Service) location(name string) *time.Location {
	if loc, err := time.LoadLocation(name); err == nil {
		return loc
	}
	return time.UTC
}

func toProfile(u db.User) *pb.Profile {
	attrs := map[string]string{
		"display_name": u.DisplayName,
		"gender":       u.Gender,
	}
	if u.Bio != "" {
		attrs["bio"] = u.Bio
	}
	if u.City != "" {
		attrs["city"] = u.City
	}
	if u.Age > 0 {
		attrs["age"] = strconv.Itoa(u.Age)
	}
	return &pb.Profile{Id: strconv.FormatUint(u.ID, 10), Attributes: attrs}
}
