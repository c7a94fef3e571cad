package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/validation"

	"gorm.io/gorm"
)

// PostCreator publishes posts and edits their metadata.
type PostCreator struct {
	exec     *ledger.Executor
	feed     *FeedIndex
	gate     *PostGate
	sealer   *sealer
	cooldown time.Duration
}

// CreatePostInput describes a new post. A nil Access publishes it ungated.
type CreatePostInput struct {
	TribeID  uint
	Metadata string
	Access   *AccessRule
}

func validatePostMetadata(metadata string) error {
	if metadata == "" {
		return models.NewValidationError("metadata is required")
	}
	if err := validation.ValidateMetadata(metadata); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// checkCooldown enforces the minimum gap between an account's posts.
func (c *PostCreator) checkCooldown(ctx context.Context, tx *ledger.Tx) error {
	if c.cooldown <= 0 {
		return nil
	}
	last, found, err := repository.NewPostRepository(tx.DB).LastPostAt(ctx, tx.Caller)
	if err != nil || !found {
		return err
	}
	wait := c.cooldown - tx.Now.Sub(last)
	if wait <= 0 {
		return nil
	}
	exempt, err := hasRole(ctx, tx.DB, models.RoleRateLimitExempt, tx.Caller)
	if err != nil || exempt {
		return err
	}
	return models.NewRateLimitedError(fmt.Sprintf("posting again is allowed in %s", wait.Round(time.Second)))
}

// Create publishes a post in a tribe the caller is an ACTIVE member or admin of.
func (c *PostCreator) Create(ctx context.Context, caller models.Address, in CreatePostInput) (*models.Post, error) {
	if err := validatePostMetadata(in.Metadata); err != nil {
		return nil, err
	}
	var post *models.Post
	_, err := c.exec.Execute(ctx, ledger.Call{Op: "createPost", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, in.TribeID)
		if err != nil {
			return err
		}
		admin, err := isTribeAdmin(ctx, tx.DB, tribe, caller)
		if err != nil {
			return err
		}
		if !admin {
			status, err := repository.NewMembershipRepository(tx.DB).Status(ctx, tribe.ID, caller)
			if err != nil {
				return err
			}
			if status != models.MemberStatusActive {
				return models.NewUnauthorizedError("caller is not a member of this tribe")
			}
		}
		if err := c.checkCooldown(ctx, tx); err != nil {
			return err
		}

		post = &models.Post{
			TribeID:   tribe.ID,
			Creator:   caller,
			Metadata:  in.Metadata,
			CreatedAt: tx.Now,
		}
		if in.Access != nil {
			if err := c.gate.Validate(ctx, tx.DB, tribe.ID, *in.Access); err != nil {
				return err
			}
			sealed, err := c.sealer.seal(tribe.ID, in.Metadata)
			if err != nil {
				return err
			}
			post.Gated = true
			post.AccessKind = in.Access.Kind
			post.AccessRef = in.Access.Ref
			post.AccessMin = in.Access.Min
			post.Metadata = ""
			post.Sealed = sealed
		}

		posts := repository.NewPostRepository(tx.DB)
		if err := posts.Create(ctx, post); err != nil {
			return err
		}
		if err := posts.TouchActivity(ctx, caller, tx.Now); err != nil {
			return err
		}
		return tx.Emit("PostCreated", "post", post.ID, ledger.Fields{
			"tribe_id":    tribe.ID,
			"creator":     caller,
			"gated":       post.Gated,
			"access_kind": post.AccessKind,
		})
	})
	if err != nil {
		return nil, err
	}
	c.feed.Push(ctx, post.TribeID)
	post.Metadata = in.Metadata
	return post, nil
}

// loadPost returns the post or UnknownPost.
func loadPost(ctx context.Context, db *gorm.DB, id uint) (*models.Post, error) {
	post, err := repository.NewPostRepository(db).GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewUnknownPostError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("load post %d: %w", id, err)
	}
	return post, nil
}

// UpdateMetadata replaces a post's metadata. The creator, a tribe admin or a MODERATOR may edit.
func (c *PostCreator) UpdateMetadata(ctx context.Context, caller models.Address, postID uint, metadata string) (*ledger.Receipt, error) {
	if err := validatePostMetadata(metadata); err != nil {
		return nil, err
	}
	return c.exec.Execute(ctx, ledger.Call{Op: "updatePostMetadata", Caller: caller}, func(tx *ledger.Tx) error {
		post, err := loadPost(ctx, tx.DB, postID)
		if err != nil {
			return err
		}
		if post.Creator != caller {
			tribe, err := loadTribe(ctx, tx.DB, post.TribeID)
			if err != nil {
				return err
			}
			admin, err := isTribeAdmin(ctx, tx.DB, tribe, caller)
			if err != nil {
				return err
			}
			moderator, err := hasRole(ctx, tx.DB, models.RoleModerator, caller)
			if err != nil {
				return err
			}
			if !admin && !moderator {
				return models.NewNotOwnerError("only the creator, a tribe admin or a moderator may edit this post")
			}
		}

		if post.Gated {
			sealed, err := c.sealer.seal(post.TribeID, metadata)
			if err != nil {
				return err
			}
			post.Sealed = sealed
		} else {
			post.Metadata = metadata
		}
		edited := tx.Now
		post.EditedAt = &edited
		if err := repository.NewPostRepository(tx.DB).UpdateMetadata(ctx, post); err != nil {
			return err
		}
		return tx.Emit("PostMetadataUpdated", "post", post.ID, ledger.Fields{"tribe_id": post.TribeID, "editor": caller})
	})
}
