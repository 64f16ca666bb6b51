package ratestore

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisRatePrefix string = "rate/"

// state older than two days is dead weight; keys self-expire
var redisRateTTL = 48 * time.Hour

type RedisRateStore struct {
	Client *redis.Client
}

func NewRedisRateStore(redisURL string) (*RedisRateStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	rrs := RedisRateStore{
		Client: rdb,
	}
	return &rrs, nil
}

func redisRateKey(userID int64) string {
	return redisRatePrefix + strconv.FormatInt(userID, 10)
}

func (s *RedisRateStore) Get(ctx context.Context, userID int64) (*RateState, error) {
	raw, err := s.Client.Get(ctx, redisRateKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var st RateState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *RedisRateStore) Put(ctx context.Context, userID int64, st *RateState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, redisRateKey(userID), raw, redisRateTTL).Err()
}

func (s *RedisRateStore) Delete(ctx context.Context, userID int64) error {
	return s.Client.Del(ctx, redisRateKey(userID)).Err()
}
