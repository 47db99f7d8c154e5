// Package swipepb defines the SwipeBackend gRPC surface. Messages are plain Go
// structs carried on the wire as google.protobuf.Struct, so the package needs
// no generated code.
package swipepb

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"
)

// message is implemented by every request and response type.
type message interface {
	toStruct() (*structpb.Struct, error)
	fromStruct(*structpb.Struct) error
}

type Profile struct {
	Id         string
	Attributes map[string]string
}

func (p *Profile) GetId() string {
	if p == nil {
		return ""
	}
	return p.Id
}

func (p *Profile) fields() map[string]any {
	attrs := make(map[string]any, len(p.Attributes))
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	return map[string]any{"id": p.Id, "attributes": attrs}
}

func profileFrom(s *structpb.Struct) *Profile {
	f := s.GetFields()
	p := &Profile{Id: f["id"].GetStringValue()}
	if attrs := f["attributes"].GetStructValue().GetFields(); len(attrs) > 0 {
		p.Attributes = make(map[string]string, len(attrs))
		for k, v := range attrs {
			p.Attributes[k] = v.GetStringValue()
		}
	}
	return p
}

type FetchCandidatesRequest struct {
	ActorUserId string
	ExcludeIds  []string
	Limit       int32
}

func (r *FetchCandidatesRequest) GetActorUserId() string {
	if r == nil {
		return ""
	}
	return r.ActorUserId
}

func (r *FetchCandidatesRequest) GetExcludeIds() []string {
	if r == nil {
		return nil
	}
	return r.ExcludeIds
}

func (r *FetchCandidatesRequest) GetLimit() int32 {
	if r == nil {
		return 0
	}
	return r.Limit
}

func (r *FetchCandidatesRequest) toStruct() (*structpb.Struct, error) {
	exclude := make([]any, 0, len(r.GetExcludeIds()))
	for _, id := range r.GetExcludeIds() {
		exclude = append(exclude, id)
	}
	return structpb.NewStruct(map[string]any{
		"actor_user_id": r.GetActorUserId(),
		"exclude_ids":   exclude,
		"limit":         r.GetLimit(),
	})
}

func (r *FetchCandidatesRequest) fromStruct(s *structpb.Struct) error {
	f := s.GetFields()
	r.ActorUserId = f["actor_user_id"].GetStringValue()
	r.Limit = int32(f["limit"].GetNumberValue())
	r.ExcludeIds = nil
	for _, v := range f["exclude_ids"].GetListValue().GetValues() {
		id, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return fmt.Errorf("exclude_ids: expected string, got %T", v.GetKind())
		}
		r.ExcludeIds = append(r.ExcludeIds, id.StringValue)
	}
	return nil
}

type FetchCandidatesResponse struct {
	Profiles []*Profile
}

func (r *FetchCandidatesResponse) GetProfiles() []*Profile {
	if r == nil {
		return nil
	}
	return r.Profiles
}

func (r *FetchCandidatesResponse) toStruct() (*structpb.Struct, error) {
	list := make([]any, 0, len(r.GetProfiles()))
	for _, p := range r.GetProfiles() {
		if p != nil {
			list = append(list, p.fields())
		}
	}
	return structpb.NewStruct(map[string]any{"profiles": list})
}

func (r *FetchCandidatesResponse) fromStruct(s *structpb.Struct) error {
	r.Profiles = nil
	for _, v := range s.GetFields()["profiles"].GetListValue().GetValues() {
		ps := v.GetStructValue()
		if ps == nil {
			return fmt.Errorf("profiles: expected object, got %T", v.GetKind())
		}
		r.Profiles = append(r.Profiles, profileFrom(ps))
	}
	return nil
}

type RecordDecisionRequest struct {
	ActorUserId    string
	ProfileId      string
	Direction      string
	IdempotencyKey string
}

func (r *RecordDecisionRequest) GetActorUserId() string {
	if r == nil {
		return ""
	}
	return r.ActorUserId
}

func (r *RecordDecisionRequest) GetProfileId() string {
	if r == nil {
		return ""
	}
	return r.ProfileId
}

func (r *RecordDecisionRequest) GetDirection() string {
	if r == nil {
		return ""
	}
	return r.Direction
}

func (r *RecordDecisionRequest) GetIdempotencyKey() string {
	if r == nil {
		return ""
	}
	return r.IdempotencyKey
}

func (r *RecordDecisionRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"actor_user_id":   r.GetActorUserId(),
		"profile_id":      r.GetProfileId(),
		"direction":       r.GetDirection(),
		"idempotency_key": r.GetIdempotencyKey(),
	})
}

func (r *RecordDecisionRequest) fromStruct(s *structpb.Struct) error {
	f := s.GetFields()
	r.ActorUserId = f["actor_user_id"].GetStringValue()
	r.ProfileId = f["profile_id"].GetStringValue()
	r.Direction = f["direction"].GetStringValue()
	r.IdempotencyKey = f["idempotency_key"].GetStringValue()
	return nil
}

type RecordDecisionResponse struct {
	Accepted bool
	Matched  bool
}

func (r *RecordDecisionResponse) GetAccepted() bool { return r != nil && r.Accepted }

func (r *RecordDecisionResponse) GetMatched() bool { return r != nil && r.Matched }

func (r *RecordDecisionResponse) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"accepted": r.GetAccepted(),
		"matched":  r.GetMatched(),
	})
}

func (r *RecordDecisionResponse) fromStruct(s *structpb.Struct) error {
	f := s.GetFields()
	r.Accepted = f["accepted"].GetBoolValue()
	r.Matched = f["matched"].GetBoolValue()
	return nil
}

type GetAccountRequest struct {
	ActorUserId string
}

func (r *GetAccountRequest) GetActorUserId() string {
	if r == nil {
		return ""
	}
	return r.ActorUserId
}

func (r *GetAccountRequest) toStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"actor_user_id": r.GetActorUserId()})
}

func (r *GetAccountRequest) fromStruct(s *structpb.Struct) error {
	r.ActorUserId = s.GetFields()["actor_user_id"].GetStringValue()
	return nil
}

// Account mirrors the quota record; SwipeLimit -1 means unlimited.
type Account struct {
	PlanTier            string
	SwipeLimit          int64
	SwipesUsed          int64
	SuperlikesAvailable int64
	LastResetDate       string
	TimeZone            string
}

func (a *Account) toStruct() (*structpb.Struct, error) {
	if a == nil {
		a = &Account{}
	}
	return structpb.NewStruct(map[string]any{
		"plan_tier":            a.PlanTier,
		"swipe_limit":          a.SwipeLimit,
		"swipes_used":          a.SwipesUsed,
		"superlikes_available": a.SuperlikesAvailable,
		"last_reset_date":      a.LastResetDate,
		"time_zone":            a.TimeZone,
	})
}

func (a *Account) fromStruct(s *structpb.Struct) error {
	f := s.GetFields()
	a.PlanTier = f["plan_tier"].GetStringValue()
	a.SwipeLimit = int64(f["swipe_limit"].GetNumberValue())
	a.SwipesUsed = int64(f["swipes_used"].GetNumberValue())
	a.SuperlikesAvailable = int64(f["superlikes_available"].GetNumberValue())
	a.LastResetDate = f["last_reset_date"].GetStringValue()
	a.TimeZone = f["time_zone"].GetStringValue()
	return nil
}
