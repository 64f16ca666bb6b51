package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists ledger state in sqlite or postgres. The warn+strike
// bump and the sanction+audit pair are each wrapped in a transaction so a
// storage failure can never leave a sanction without its audit entry.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

// SetupDatabase opens a gorm handle from a DATABASE_URL-style string:
// "sqlite://<path>" or "postgres://..." / "postgresql://...".
func SetupDatabase(dburl string, maxConnections int) (*gorm.DB, error) {
	var dial gorm.Dialector

	openConns := maxConnections
	if strings.HasPrefix(dburl, "sqlite://") {
		sqliteSuffix := dburl[len("sqlite://"):]
		// if this isn't ":memory:", ensure that directory exists (eg, if db
		// file is being initialized)
		if !strings.Contains(sqliteSuffix, ":?") && sqliteSuffix != ":memory:" {
			os.MkdirAll(filepath.Dir(sqliteSuffix), os.ModePerm)
		}
		dial = sqlite.Open(sqliteSuffix)
		openConns = 1
	} else if strings.HasPrefix(dburl, "postgresql://") || strings.HasPrefix(dburl, "postgres://") {
		// can pass entire URL, with prefix, to gorm driver
		dial = postgres.Open(dburl)
	} else {
		return nil, fmt.Errorf("unsupported or unrecognized DATABASE_URL value: %s", dburl)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 slogGorm.New(),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}

	sqldb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(openConns)
	sqldb.SetMaxIdleConns(80)
	sqldb.SetConnMaxIdleTime(time.Hour)

	return db, nil
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&WarningRecord{},
		&MuteRecord{},
		&BanRecord{},
		&StrikeRecord{},
		&AuditEntry{},
		&RoleMember{},
	); err != nil {
		return nil, fmt.Errorf("ledger schema migration: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Warn(ctx context.Context, userID, moderatorID int64, reason string, now time.Time) (int, error) {
	var count int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		warning := WarningRecord{UserID: userID, Count: 1}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("warning_records.count + 1")}),
		}).Create(&warning).Error; err != nil {
			return err
		}
		if err := tx.First(&warning, "user_id = ?", userID).Error; err != nil {
			return err
		}
		count = warning.Count

		strike := StrikeRecord{UserID: userID, Count: 1, LastTimestamp: now.Unix()}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count":          gorm.Expr("strike_records.count + 1"),
				"last_timestamp": now.Unix(),
			}),
		}).Create(&strike).Error; err != nil {
			return err
		}

		return tx.Create(&AuditEntry{
			UserID:      userID,
			ModeratorID: moderatorID,
			Action:      ActionWarn,
			Reason:      reason,
			CreatedAt:   now.Unix(),
		}).Error
	})
	return count, err
}

func (s *GormStore) Warnings(ctx context.Context, userID int64) (int, error) {
	var warning WarningRecord
	err := s.db.WithContext(ctx).First(&warning, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return warning.Count, nil
}

func (s *GormStore) ClearWarnings(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&WarningRecord{}, "user_id = ?", userID).Error
}

func (s *GormStore) Strikes(ctx context.Context, userID int64) (int, error) {
	var strike StrikeRecord
	err := s.db.WithContext(ctx).First(&strike, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}
	return strike.Count, nil
}

func (s *GormStore) ClearStrikes(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&StrikeRecord{}, "user_id = ?", userID).Error
}

func (s *GormStore) upsertSanction(ctx context.Context, rec interface{}, userID int64, action, reason string, moderatorID int64, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).Create(rec).Error; err != nil {
			return err
		}
		return tx.Create(&AuditEntry{
			UserID:      userID,
			ModeratorID: moderatorID,
			Action:      action,
			Reason:      reason,
			CreatedAt:   now.Unix(),
		}).Error
	})
}

func (s *GormStore) Mute(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	rec := &MuteRecord{UserID: userID, Until: sanctionUntil(dur, now)}
	return s.upsertSanction(ctx, rec, userID, ActionMute, reason, moderatorID, now)
}

func (s *GormStore) Unmute(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&MuteRecord{}, "user_id = ?", userID).Error
}

func (s *GormStore) IsMuted(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	var rec MuteRecord
	err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, nil
	} else if err != nil {
		return false, 0, err
	}
	if !activeSanction(rec.Until, now) {
		// lazy expiry
		if err := s.Unmute(ctx, userID); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}
	return true, rec.Until, nil
}

func (s *GormStore) ListMutes(ctx context.Context, now time.Time) ([]MuteRecord, error) {
	if err := s.db.WithContext(ctx).Delete(&MuteRecord{}, "until > 0 AND until <= ?", now.Unix()).Error; err != nil {
		return nil, err
	}
	out := []MuteRecord{}
	if err := s.db.WithContext(ctx).Order("user_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) Ban(ctx context.Context, userID int64, dur time.Duration, moderatorID int64, reason string, now time.Time) error {
	rec := &BanRecord{UserID: userID, Until: sanctionUntil(dur, now)}
	return s.upsertSanction(ctx, rec, userID, ActionBan, reason, moderatorID, now)
}

func (s *GormStore) Unban(ctx context.Context, userID int64) error {
	return s.db.WithContext(ctx).Delete(&BanRecord{}, "user_id = ?", userID).Error
}

func (s *GormStore) IsBanned(ctx context.Context, userID int64, now time.Time) (bool, int64, error) {
	var rec BanRecord
	err := s.db.WithContext(ctx).First(&rec, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, nil
	} else if err != nil {
		return false, 0, err
	}
	if !activeSanction(rec.Until, now) {
		if err := s.Unban(ctx, userID); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}
	return true, rec.Until, nil
}

func (s *GormStore) ListBans(ctx context.Context, now time.Time) ([]BanRecord, error) {
	if err := s.db.WithContext(ctx).Delete(&BanRecord{}, "until > 0 AND until <= ?", now.Unix()).Error; err != nil {
		return nil, err
	}
	out := []BanRecord{}
	if err := s.db.WithContext(ctx).Order("user_id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (s *GormStore) AuditSince(ctx context.Context, since time.Time) ([]AuditEntry, error) {
	out := []AuditEntry{}
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since.Unix()).
		Order("created_at, id").
		Find(&out).Error
	return out, err
}

func (s *GormStore) TopOffenders(ctx context.Context, limit int) ([]StrikeRecord, error) {
	out := []StrikeRecord{}
	q := s.db.WithContext(ctx).Order("count DESC, user_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (s *GormStore) Grant(ctx context.Context, userID int64, role string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&RoleMember{UserID: userID, Role: role}).Error
}

func (s *GormStore) Revoke(ctx context.Context, userID int64, role string) error {
	return s.db.WithContext(ctx).Delete(&RoleMember{}, "user_id = ? AND role = ?", userID, role).Error
}

func (s *GormStore) HasRole(ctx context.Context, userID int64, role string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&RoleMember{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) ListRole(ctx context.Context, role string) ([]int64, error) {
	out := []int64{}
	err := s.db.WithContext(ctx).Model(&RoleMember{}).
		Where("role = ?", role).
		Order("user_id").
		Pluck("user_id", &out).Error
	return out, err
}

func (s *GormStore) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	res := s.db.WithContext(ctx).Delete(&MuteRecord{}, "until > 0 AND until <= ?", now.Unix())
	if res.Error != nil {
		return n, res.Error
	}
	n += res.RowsAffected
	res = s.db.WithContext(ctx).Delete(&BanRecord{}, "until > 0 AND until <= ?", now.Unix())
	if res.Error != nil {
		return n, res.Error
	}
	n += res.RowsAffected
	return n, nil
}
