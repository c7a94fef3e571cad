package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	TribeKeyPrefix       = "tribe:%d"
	TribeFeedVersionKey  = "tribe:%d:feed:version"
	TribeFeedPagePrefix  = "tribe:%d:feed:v%d:%d:%d"
	CollectibleKeyPrefix = "collectible:%d"
)

const (
	TribeTTL       = 10 * time.Minute
	FeedPageTTL    = 2 * time.Minute
	CollectibleTTL = 5 * time.Minute
)

func TribeKey(tribeID uint) string {
	return fmt.Sprintf(TribeKeyPrefix, tribeID)
}

func TribeFeedPageKey(tribeID uint, version int64, offset, limit int) string {
	return fmt.Sprintf(TribeFeedPagePrefix, tribeID, version, offset, limit)
}

func CollectibleKey(collectibleID uint) string {
	return fmt.Sprintf(CollectibleKeyPrefix, collectibleID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateTribe(ctx context.Context, tribeID uint) {
	Invalidate(ctx, TribeKey(tribeID))
}

func InvalidateCollectible(ctx context.Context, collectibleID uint) {
	Invalidate(ctx, CollectibleKey(collectibleID))
}

// FeedVersion returns the current page-cache generation of a tribe feed.
func FeedVersion(ctx context.Context, tribeID uint) int64 {
	if client == nil {
		return 0
	}
	v, err := client.Get(ctx, fmt.Sprintf(TribeFeedVersionKey, tribeID)).Int64()
	if err != nil {
		return 0
	}
	return v
}

// BumpFeedVersion retires every cached page of a tribe feed at once.
func BumpFeedVersion(ctx context.Context, tribeID uint) {
	if client != nil {
		client.Incr(ctx, fmt.Sprintf(TribeFeedVersionKey, tribeID))
	}
}
