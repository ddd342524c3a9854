package api

import (
	"context"                          // Cache calls
	"strconv"                          // Cache key formatting
	"time"                             // Cache lifetime
	"trading_simulator/internal/utils" // Cache helpers

	"github.com/google/uuid"     // Generation tokens
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

const (
	historyView  = "txhistory" // Transaction history page
	holdingsView = "holdings"  // Symbols offered on the sell page
)

func generationKey(userID uint) string {
	return "cachegen:user:" + strconv.FormatUint(uint64(userID), 10)
}

// viewKey names view for userID under the user's current cache generation.
// It returns false when the user has no generation yet.
func viewKey(ctx context.Context, cache utils.Cache, view string, userID uint) (string, bool) {
	var gen string
	found, err := utils.GetCache(ctx, cache, generationKey(userID), &gen)
	if err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache read failed")
		return "", false
	}
	if !found || gen == "" {
		return "", false
	}
	return view + ":user:" + strconv.FormatUint(uint64(userID), 10) + ":" + gen, true
}

// cached serves view from cache or stores what load returns. A view loaded
// while a trade is being recorded lands under the generation that trade
// retires, so readers never see it afterwards. Errors are never cached.
func cached[T any](ctx context.Context, cache utils.Cache, ttl time.Duration, view string, userID uint, load func() (T, error)) (T, error) {
	key, ok := viewKey(ctx, cache, view, userID)
	if !ok {
		return load()
	}

	var v T
	found, err := utils.GetCache(ctx, cache, key, &v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache read failed")
	}
	if found && err == nil {
		return v, nil
	}

	// Cache miss: load from the ledger
	if v, err = load(); err != nil {
		return v, err
	}
	if err := utils.SetCache(ctx, cache, key, v, ttl); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Cache write failed")
	}
	return v, nil
}

// invalidate starts a new cache generation for userID, orphaning every view
// cached so far
func invalidate(ctx context.Context, cache utils.Cache, userID uint) {
	var stale []string
	for _, view := range []string{historyView, holdingsView} {
		if key, ok := viewKey(ctx, cache, view, userID); ok {
			stale = append(stale, key)
		}
	}
	if err := utils.SetCache(ctx, cache, generationKey(userID), uuid.NewString(), 0); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,      // Trading user
			"error":   err.Error(), // Error message
		}).Warn("Cache invalidation failed")
	}
	if err := utils.DeleteCache(ctx, cache, stale...); err != nil {
		logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Cache cleanup failed")
	}
}
