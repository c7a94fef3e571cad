package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tribehub/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	UpdateMetadata(ctx context.Context, post *models.Post) error
	ListByTribe(ctx context.Context, tribeID uint, offset, limit int) ([]models.Post, int64, error)
	ListByCreator(ctx context.Context, creator models.Address, offset, limit int) ([]models.Post, int64, error)
	ListByTribes(ctx context.Context, tribeIDs []uint, offset, limit int) ([]models.Post, int64, error)

	AddReaction(ctx context.Context, postID uint, account models.Address, kind models.ReactionKind, now time.Time) (bool, error)
	HasReaction(ctx context.Context, postID uint, account models.Address, kind models.ReactionKind) (bool, error)
	IncrementCounter(ctx context.Context, postID uint, counter string) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	Comments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error)

	LastPostAt(ctx context.Context, account models.Address) (time.Time, bool, error)
	TouchActivity(ctx context.Context, account models.Address, at time.Time) error
}

// Counter columns that IncrementCounter accepts.
const (
	CounterLikes    = "like_count"
	CounterComments = "comment_count"
	CounterShares   = "share_count"
	CounterSaves    = "save_count"
)

// CounterFor maps a reaction to the post counter it increments.
func CounterFor(kind models.ReactionKind) (string, bool) {
	switch kind {
	case models.ReactionLike:
		return CounterLikes, true
	case models.ReactionShare:
		return CounterShares, true
	case models.ReactionSave:
		return CounterSaves, true
	}
	return "", false
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetByIDs returns the posts in the order of ids, skipping ids that do not exist.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var found []models.Post
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Post, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	posts := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			posts = append(posts, p)
		}
	}
	return posts, nil
}

func (r *postRepository) UpdateMetadata(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"metadata":  post.Metadata,
			"sealed":    post.Sealed,
			"edited_at": post.EditedAt,
		}).Error
}

func (r *postRepository) ListByTribe(ctx context.Context, tribeID uint, offset, limit int) ([]models.Post, int64, error) {
	posts := []models.Post{}
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("tribe_id = ?", tribeID).
		Order("id DESC")
	total, err := paginate(q, offset, limit, &posts)
	return posts, total, err
}

func (r *postRepository) ListByCreator(ctx context.Context, creator models.Address, offset, limit int) ([]models.Post, int64, error) {
	posts := []models.Post{}
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("creator = ?", creator).
		Order("id DESC")
	total, err := paginate(q, offset, limit, &posts)
	return posts, total, err
}

func (r *postRepository) ListByTribes(ctx context.Context, tribeIDs []uint, offset, limit int) ([]models.Post, int64, error) {
	posts := []models.Post{}
	if len(tribeIDs) == 0 {
		return posts, 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("tribe_id IN ?", tribeIDs).
		Order("id DESC")
	total, err := paginate(q, offset, limit, &posts)
	return posts, total, err
}

func (r *postRepository) AddReaction(ctx context.Context, postID uint, account models.Address, kind models.ReactionKind, now time.Time) (bool, error) {
	return insertIfAbsent(r.db.WithContext(ctx), &models.PostReaction{
		PostID:    postID,
		Account:   account,
		Kind:      kind,
		CreatedAt: now,
	})
}

func (r *postRepository) HasReaction(ctx context.Context, postID uint, account models.Address, kind models.ReactionKind) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostReaction{}).
		Where("post_id = ? AND account = ? AND kind = ?", postID, account, kind).
		Count(&count).Error
	return count > 0, err
}

// IncrementCounter bumps one of the monotonic post counters.
func (r *postRepository) IncrementCounter(ctx context.Context, postID uint, counter string) error {
	switch counter {
	case CounterLikes, CounterComments, CounterShares, CounterSaves:
	default:
		return fmt.Errorf("unknown post counter %q", counter)
	}
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(counter, gorm.Expr(counter+" + 1")).Error
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *postRepository) Comments(ctx context.Context, postID uint, offset, limit int) ([]models.Comment, int64, error) {
	comments := []models.Comment{}
	q := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Order("id ASC")
	total, err := paginate(q, offset, limit, &comments)
	return comments, total, err
}

func (r *postRepository) LastPostAt(ctx context.Context, account models.Address) (time.Time, bool, error) {
	var activity models.PosterActivity
	err := r.db.WithContext(ctx).Where("account = ?", account).First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return activity.LastPostAt, true, nil
}

func (r *postRepository) TouchActivity(ctx context.Context, account models.Address, at time.Time) error {
	return r.db.WithContext(ctx).Save(&models.PosterActivity{
		Account:       account,
		LastPostAt:    at,
		SchemaVersion: 1,
	}).Error
}
