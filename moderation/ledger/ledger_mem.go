package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore keeps all ledger state in process memory. Used by tests and by
// daemon runs without a DATABASE_URL; state does not survive restarts.
type MemStore struct {
	lk       sync.Mutex
	warnings map[int64]int
	strikes  map[int64]StrikeRecord
	mutes    map[int64]int64
	bans     map[int64]int64
	audit    []AuditEntry
	roles    map[RoleMember]bool
	nextID   uint
}

var _ Store = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{
		warnings: make(map[int64]int),
		strikes:  make(map[int64]StrikeRecord),
		mutes:    make(map[int64]int64),
		bans:     make(map[int64]int64),
		roles:    make(map[RoleMember]bool),
	}
}

func (s *MemStore) appendAudit(userID, moderatorID int64, action, reason string, now time.Time) {
	s.nextID++
	s.audit = append(s.audit, AuditEntry{
		ID:          s.nextID,
		UserID:      userID,
		ModeratorID: moderatorID,
		Action:      action,
		Reason:      reason,
		CreatedAt:   now.Unix(),
	})
}

func (s *MemStore) Warn(ctx context.Context, userID, moderatorID int64, reason string, now time.Time) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.warnings[userID]++
	st := s.strikes[userID]
	st.UserID = userID
	st.Count++
	st.LastTimestamp = now.Unix()
	s.strikes[userID] = st
	s.appendAudit(userID, moderatorID, ActionWarn, reason, now)
	return s.warnings[userID], nil
}

func (s *MemStore) Warnings(ctx context.Context, userID int64) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.warnings[userID], nil
}

func (s *MemStore) ClearWarnings(ctx context.Context, userID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.warnings, userID)
	return nil
}

func (s *MemStore) Strikes(ctx context.Context, userID int64) (int, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.strikes[userID].Count, nil
}

func (s *MemStore) ClearStrikes(ctx context.Context, userID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.strikes, userID)
	return nil
}

func (s *MemStore) Mute(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.mutes[userID] = sanctionUntil(dur, now)
	s.appendAudit(userID, moderatorID, ActionMute, reason, now)
	return nil
}

func (s *MemStore) Unmute(ctx context.Context, userID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.mutes, userID)
	return nil
}

func (s *MemStore) IsMuted(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	until, ok := s.mutes[userID]
	if !ok {
		return false, 0, nil
	}
	if !activeSanction(until, now) {
		delete(s.mutes, userID)
		return false, 0, nil
	}
	return true, until, nil
}

func (s *MemStore) ListMutes(ctx context.Context, now time.Time) ([]MuteRecord, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := []MuteRecord{}
	for userID, until := range s.mutes {
		if !activeSanction(until, now) {
			delete(s.mutes, userID)
			continue
		}
		out = append(out, MuteRecord{UserID: userID, Until: until})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemStore) Ban(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.bans[userID] = sanctionUntil(dur, now)
	s.appendAudit(userID, moderatorID, ActionBan, reason, now)
	return nil
}

func (s *MemStore) Unban(ctx context.Context, userID int64) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.bans, userID)
	return nil
}

func (s *MemStore) IsBanned(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	until, ok := s.bans[userID]
	if !ok {
		return false, 0, nil
	}
	if !activeSanction(until, now) {
		delete(s.bans, userID)
		return false, 0, nil
	}
	return true, until, nil
}

func (s *MemStore) ListBans(ctx context.Context, now time.Time) ([]BanRecord, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := []BanRecord{}
	for userID, until := range s.bans {
		if !activeSanction(until, now) {
			delete(s.bans, userID)
			continue
		}
		out = append(out, BanRecord{UserID: userID, Until: until})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (s *MemStore) AuditSince(ctx context.Context, since time.Time) ([]AuditEntry, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := []AuditEntry{}
	for _, e := range s.audit {
		if e.CreatedAt >= since.Unix() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemStore) TopOffenders(ctx context.Context, limit int) ([]StrikeRecord, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := make([]StrikeRecord, 0, len(s.strikes))
	for _, st := range s.strikes {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemStore) Grant(ctx context.Context, userID int64, role string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	s.roles[RoleMember{UserID: userID, Role: role}] = true
	return nil
}

func (s *MemStore) Revoke(ctx context.Context, userID int64, role string) error {
	s.lk.Lock()
	defer s.lk.Unlock()
	delete(s.roles, RoleMember{UserID: userID, Role: role})
	return nil
}

func (s *MemStore) HasRole(ctx context.Context, userID int64, role string) (bool, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.roles[RoleMember{UserID: userID, Role: role}], nil
}

func (s *MemStore) ListRole(ctx context.Context, role string) ([]int64, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	out := []int64{}
	for m := range s.roles {
		if m.Role == role {
			out = append(out, m.UserID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	s.lk.Lock()
	defer s.lk.Unlock()
	var n int64
	for userID, until := range s.mutes {
		if !activeSanction(until, now) {
			delete(s.mutes, userID)
			n++
		}
	}
	for userID, until := range s.bans {
		if !activeSanction(until, now) {
			delete(s.bans, userID)
			n++
		}
	}
	return n, nil
}
