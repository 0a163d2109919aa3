package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CodeAllocator hands out human-readable reservation codes that are
// unique across the system.  The primary strategy is an atomic Redis
// counter per prefix and day, which yields sequential codes without the
// read-last-then-increment race.  When Redis is unavailable the
// allocator falls back to random suffixes; the unique index on
// reservations.code plus the caller's retry-on-ErrCodeTaken loop makes
// that equally safe, just less pretty.
type CodeAllocator struct {
	rdb *redis.Client // may be nil, in which case only the fallback is used
}

// NewCodeAllocator returns an allocator backed by the given Redis
// client.  A nil client is valid and disables the counter strategy.
func NewCodeAllocator(rdb *redis.Client) *CodeAllocator { return &CodeAllocator{rdb: rdb} }

// Code prefixes for the two kinds of user-facing codes.
const (
	PrefixReservation = "RES"
	PrefixPackage     = "PKG"
)

// counterTTL keeps daily counter keys from accumulating forever.
const counterTTL = 48 * time.Hour

// Next allocates the next code for the given prefix, e.g.
// "RES-20240101-0007".  The day segment is UTC.
func (a *CodeAllocator) Next(ctx context.Context, prefix string, now time.Time) (string, error) {
	day := now.UTC().Format("20060102")
	if a.rdb != nil {
		key := fmt.Sprintf("resv:code:%s:%s", strings.ToLower(prefix), day)
		n, err := a.rdb.Incr(ctx, key).Result()
		if err == nil {
			if n == 1 {
				// first allocation of the day sets the expiry
				_ = a.rdb.Expire(ctx, key, counterTTL).Err()
			}
			return FormatCode(prefix, day, n), nil
		}
		// fall through to the random strategy on any Redis failure
	}
	suffix, err := randomSuffix(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%s", prefix, day, suffix), nil
}

// FormatCode renders a sequential code.  Counters past 9999 simply grow
// wider; the width only matters for aesthetics.
func FormatCode(prefix, day string, n int64) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day, n)
}

// randomSuffix returns n random bytes hex-encoded and upper-cased,
// giving 2n characters of suffix.
func randomSuffix(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}
