package ratestore

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type MemRateStore struct {
	states *xsync.MapOf[int64, *RateState]
}

func NewMemRateStore() *MemRateStore {
	return &MemRateStore{
		states: xsync.NewMapOf[int64, *RateState](),
	}
}

func (s *MemRateStore) Get(ctx context.Context, userID int64) (*RateState, error) {
	st, ok := s.states.Load(userID)
	if !ok {
		return nil, nil
	}
	// copy, so callers can't mutate shared state outside of Put
	out := *st
	out.RecentTimestamps = append([]time.Time{}, st.RecentTimestamps...)
	return &out, nil
}

func (s *MemRateStore) Put(ctx context.Context, userID int64, st *RateState) error {
	cp := *st
	cp.RecentTimestamps = append([]time.Time{}, st.RecentTimestamps...)
	s.states.Store(userID, &cp)
	return nil
}

func (s *MemRateStore) Delete(ctx context.Context, userID int64) error {
	s.states.Delete(userID)
	return nil
}
