package service

import (
	"context"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
)

// PostInteractions records reactions and comments on posts.
type PostInteractions struct {
	exec *ledger.Executor
	gate *PostGate
}

var reactionEvents = map[models.ReactionKind]string{
	models.ReactionLike:  "PostLiked",
	models.ReactionShare: "PostShared",
	models.ReactionSave:  "PostSaved",
}

// requireVisible loads a post the caller is allowed to read.
func (p *PostInteractions) requireVisible(ctx context.Context, tx *ledger.Tx, postID uint) (*models.Post, error) {
	post, err := loadPost(ctx, tx.DB, postID)
	if err != nil {
		return nil, err
	}
	ok, err := p.gate.CanView(ctx, tx.DB, post, tx.Caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewUnauthorizedError("caller cannot view this post")
	}
	return post, nil
}

// React adds a like, share or save. Repeating a reaction is a no-op.
func (p *PostInteractions) React(ctx context.Context, caller models.Address, postID uint, kind models.ReactionKind) (*ledger.Receipt, error) {
	counter, ok := repository.CounterFor(kind)
	if !ok {
		return nil, models.NewValidationError("unknown reaction " + string(kind))
	}
	return p.exec.Execute(ctx, ledger.Call{Op: "react", Caller: caller}, func(tx *ledger.Tx) error {
		post, err := p.requireVisible(ctx, tx, postID)
		if err != nil {
			return err
		}
		posts := repository.NewPostRepository(tx.DB)
		added, err := posts.AddReaction(ctx, post.ID, caller, kind, tx.Now)
		if err != nil || !added {
			return err
		}
		if err := posts.IncrementCounter(ctx, post.ID, counter); err != nil {
			return err
		}
		return tx.Emit(reactionEvents[kind], "post", post.ID, ledger.Fields{"tribe_id": post.TribeID, "account": caller})
	})
}

// Comment appends a comment. Every comment counts, repeats included.
func (p *PostInteractions) Comment(ctx context.Context, caller models.Address, postID uint, metadata string) (*models.Comment, error) {
	if err := validatePostMetadata(metadata); err != nil {
		return nil, err
	}
	var comment *models.Comment
	_, err := p.exec.Execute(ctx, ledger.Call{Op: "comment", Caller: caller}, func(tx *ledger.Tx) error {
		post, err := p.requireVisible(ctx, tx, postID)
		if err != nil {
			return err
		}
		posts := repository.NewPostRepository(tx.DB)
		comment = &models.Comment{PostID: post.ID, Author: caller, Metadata: metadata, CreatedAt: tx.Now}
		if err := posts.CreateComment(ctx, comment); err != nil {
			return err
		}
		if err := posts.IncrementCounter(ctx, post.ID, repository.CounterComments); err != nil {
			return err
		}
		return tx.Emit("PostCommented", "post", post.ID, ledger.Fields{
			"tribe_id":   post.TribeID,
			"comment_id": comment.ID,
			"author":     caller,
		})
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
