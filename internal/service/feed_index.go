package service

import (
	"context"

	"tribehub/internal/cache"
	"tribehub/internal/models"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// FeedIndex is the read side shared by the content modules. Tribe feed pages are cached
// as post ids under a per-tribe generation; posts are always loaded fresh so counters
// and edits are never stale.
type FeedIndex struct {
	db *gorm.DB
}

type feedPage struct {
	IDs   []uint `json:"ids"`
	Total int64  `json:"total"`
}

func newFeedIndex(db *gorm.DB) *FeedIndex {
	return &FeedIndex{db: db}
}

// Push records a new post in its tribe feed. Call after the post is committed.
func (f *FeedIndex) Push(ctx context.Context, tribeID uint) {
	cache.BumpFeedVersion(ctx, tribeID)
}

// TribePage returns one window of a tribe's posts, newest first.
func (f *FeedIndex) TribePage(ctx context.Context, tribeID uint, offset, limit int) ([]models.Post, int64, error) {
	key := cache.TribeFeedPageKey(tribeID, cache.FeedVersion(ctx, tribeID), offset, limit)
	var page feedPage
	err := cache.Aside(ctx, key, &page, cache.FeedPageTTL, func() error {
		posts, total, err := repository.NewPostRepository(f.db).ListByTribe(ctx, tribeID, offset, limit)
		if err != nil {
			return err
		}
		page = feedPage{IDs: postIDs(posts), Total: total}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	posts, err := repository.NewPostRepository(f.db).GetByIDs(ctx, page.IDs)
	return posts, page.Total, err
}

// MergedPage returns one window over the union of several tribe feeds, newest first.
func (f *FeedIndex) MergedPage(ctx context.Context, tribeIDs []uint, offset, limit int) ([]models.Post, int64, error) {
	return repository.NewPostRepository(f.db).ListByTribes(ctx, tribeIDs, offset, limit)
}

// CreatorPage returns one window of an account's posts across tribes, newest first.
func (f *FeedIndex) CreatorPage(ctx context.Context, creator models.Address, offset, limit int) ([]models.Post, int64, error) {
	return repository.NewPostRepository(f.db).ListByCreator(ctx, creator, offset, limit)
}

func postIDs(posts []models.Post) []uint {
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}
