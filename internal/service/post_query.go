package service

import (
	"context"

	"tribehub/internal/models"
	"tribehub/internal/observability"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// PostQuery serves read projections of posts with gated content redacted per viewer.
type PostQuery struct {
	db     *gorm.DB
	feed   *FeedIndex
	gate   *PostGate
	sealer *sealer
}

// reveal fills in gated metadata for viewers who pass the access rule and redacts it otherwise.
func (q *PostQuery) reveal(ctx context.Context, post *models.Post, viewer models.Address) error {
	if !post.Gated {
		return nil
	}
	ok, err := q.gate.CanView(ctx, q.db, post, viewer)
	if err != nil {
		return err
	}
	post.Metadata = ""
	if !ok {
		post.Redacted = true
		return nil
	}
	plain, err := q.sealer.open(post.TribeID, post.Sealed)
	if err != nil {
		observability.LogAsyncOperationError(ctx, "open_sealed_post", err, map[string]interface{}{"post_id": post.ID})
		post.Redacted = true
		return nil
	}
	post.Metadata = plain
	return nil
}

func (q *PostQuery) revealAll(ctx context.Context, posts []models.Post, viewer models.Address) error {
	for i := range posts {
		if err := q.reveal(ctx, &posts[i], viewer); err != nil {
			return err
		}
	}
	return nil
}

func (q *PostQuery) GetPost(ctx context.Context, id uint, viewer models.Address) (*models.Post, error) {
	post, err := loadPost(ctx, q.db, id)
	if err != nil {
		return nil, err
	}
	if err := q.reveal(ctx, post, viewer); err != nil {
		return nil, err
	}
	return post, nil
}

// TribePosts lists a tribe's posts, newest first.
func (q *PostQuery) TribePosts(ctx context.Context, tribeID uint, offset, limit int, viewer models.Address) (*Page[models.Post], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	if _, err := loadTribe(ctx, q.db, tribeID); err != nil {
		return nil, err
	}
	posts, total, err := q.feed.TribePage(ctx, tribeID, offset, limit)
	if err != nil {
		return nil, err
	}
	if err := q.revealAll(ctx, posts, viewer); err != nil {
		return nil, err
	}
	return newPage(posts, total), nil
}

// UserPosts lists the posts account created, newest first.
func (q *PostQuery) UserPosts(ctx context.Context, account models.Address, offset, limit int, viewer models.Address) (*Page[models.Post], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	posts, total, err := q.feed.CreatorPage(ctx, account, offset, limit)
	if err != nil {
		return nil, err
	}
	if err := q.revealAll(ctx, posts, viewer); err != nil {
		return nil, err
	}
	return newPage(posts, total), nil
}

// FeedForUser merges the feeds of the tribes account is an ACTIVE member of or follows.
func (q *PostQuery) FeedForUser(ctx context.Context, account models.Address, offset, limit int) (*Page[models.Post], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	members := repository.NewMembershipRepository(q.db)
	joined, err := members.ActiveTribeIDs(ctx, account)
	if err != nil {
		return nil, err
	}
	followed, err := members.FollowedTribeIDs(ctx, account)
	if err != nil {
		return nil, err
	}
	posts, total, err := q.feed.MergedPage(ctx, unionIDs(joined, followed), offset, limit)
	if err != nil {
		return nil, err
	}
	if err := q.revealAll(ctx, posts, account); err != nil {
		return nil, err
	}
	return newPage(posts, total), nil
}

// Comments lists a post's comments in the order they were made.
func (q *PostQuery) Comments(ctx context.Context, postID uint, offset, limit int) (*Page[models.Comment], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	if _, err := loadPost(ctx, q.db, postID); err != nil {
		return nil, err
	}
	items, total, err := repository.NewPostRepository(q.db).Comments(ctx, postID, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

func unionIDs(sets ...[]uint) []uint {
	seen := map[uint]struct{}{}
	out := []uint{}
	for _, set := range sets {
		for _, id := range set {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}
