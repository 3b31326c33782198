package blocklist

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// ErrInvalidUserID is returned for blank user ids.
var ErrInvalidUserID = errors.New("invalid user id")

const keyPrefix = "modmail:blocklist:"

// Store keeps blocked user ids in a Redis set per guild.
type Store struct {
	client *redis.Client
	key    string
}

// NewStore builds a store for guildID.
func NewStore(client *redis.Client, guildID string) *Store {
	return &Store{client: client, key: keyPrefix + guildID}
}

// Block adds userID. It reports whether the user was not already blocked.
func (s *Store) Block(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrInvalidUserID
	}
	added, err := s.client.SAdd(ctx, s.key, userID).Result()
	if err != nil {
		return false, err
	}
	return added > 0, nil
}

// Unblock removes userID. It reports whether the user was blocked.
func (s *Store) Unblock(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrInvalidUserID
	}
	removed, err := s.client.SRem(ctx, s.key, userID).Result()
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

// IsBlocked reports whether userID is blocked.
func (s *Store) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return s.client.SIsMember(ctx, s.key, userID).Result()
}

// List returns the blocked user ids in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
