package service

import (
	"context"
	"time"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
)

// ContentConfig carries the content subsystem's settings.
type ContentConfig struct {
	// Cooldown is the minimum gap between two posts by one account.
	Cooldown time.Duration
	// Key is the 32-byte AES key sealing gated metadata.
	Key []byte
}

// ContentService is the entry point to the content modules. They share one FeedIndex
// and one PostGate owned here.
type ContentService struct {
	Creator      *PostCreator
	Query        *PostQuery
	Interactions *PostInteractions
	Gate         *PostGate

	feed *FeedIndex
}

func NewContentService(exec *ledger.Executor, cfg ContentConfig) (*ContentService, error) {
	s, err := newSealer(cfg.Key)
	if err != nil {
		return nil, err
	}
	feed := newFeedIndex(exec.DB())
	gate := &PostGate{}
	return &ContentService{
		Creator:      &PostCreator{exec: exec, feed: feed, gate: gate, sealer: s, cooldown: cfg.Cooldown},
		Query:        &PostQuery{db: exec.DB(), feed: feed, gate: gate, sealer: s},
		Interactions: &PostInteractions{exec: exec, gate: gate},
		Gate:         gate,
		feed:         feed,
	}, nil
}

func (s *ContentService) CreatePost(ctx context.Context, caller models.Address, in CreatePostInput) (*models.Post, error) {
	return s.Creator.Create(ctx, caller, in)
}

func (s *ContentService) UpdatePostMetadata(ctx context.Context, caller models.Address, postID uint, metadata string) (*ledger.Receipt, error) {
	return s.Creator.UpdateMetadata(ctx, caller, postID, metadata)
}

func (s *ContentService) GetPost(ctx context.Context, id uint, viewer models.Address) (*models.Post, error) {
	return s.Query.GetPost(ctx, id, viewer)
}

func (s *ContentService) TribePosts(ctx context.Context, tribeID uint, offset, limit int, viewer models.Address) (*Page[models.Post], error) {
	return s.Query.TribePosts(ctx, tribeID, offset, limit, viewer)
}

func (s *ContentService) UserPosts(ctx context.Context, account models.Address, offset, limit int, viewer models.Address) (*Page[models.Post], error) {
	return s.Query.UserPosts(ctx, account, offset, limit, viewer)
}

func (s *ContentService) FeedForUser(ctx context.Context, account models.Address, offset, limit int) (*Page[models.Post], error) {
	return s.Query.FeedForUser(ctx, account, offset, limit)
}

func (s *ContentService) Comments(ctx context.Context, postID uint, offset, limit int) (*Page[models.Comment], error) {
	return s.Query.Comments(ctx, postID, offset, limit)
}

func (s *ContentService) Like(ctx context.Context, caller models.Address, postID uint) (*ledger.Receipt, error) {
	return s.Interactions.React(ctx, caller, postID, models.ReactionLike)
}

func (s *ContentService) Share(ctx context.Context, caller models.Address, postID uint) (*ledger.Receipt, error) {
	return s.Interactions.React(ctx, caller, postID, models.ReactionShare)
}

func (s *ContentService) Save(ctx context.Context, caller models.Address, postID uint) (*ledger.Receipt, error) {
	return s.Interactions.React(ctx, caller, postID, models.ReactionSave)
}

func (s *ContentService) Comment(ctx context.Context, caller models.Address, postID uint, metadata string) (*models.Comment, error) {
	return s.Interactions.Comment(ctx, caller, postID, metadata)
}
