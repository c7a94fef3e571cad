package service

import (
	"context"
	"fmt"
	"strconv"

	"tribehub/internal/models"
	"tribehub/internal/repository"

	"gorm.io/gorm"
)

// AccessRule guards a gated post. Ref names the collectible id, point type id or role
// the rule checks; Min is the amount the viewer must hold.
type AccessRule struct {
	Kind models.AccessKind `json:"kind"`
	Ref  string            `json:"ref,omitempty"`
	Min  int64             `json:"min,omitempty"`
}

// PostGate decides who may read gated posts.
type PostGate struct{}

// Validate checks a rule against the tribe it will guard.
func (g *PostGate) Validate(ctx context.Context, db *gorm.DB, tribeID uint, rule AccessRule) error {
	switch rule.Kind {
	case models.AccessMembers:
		if rule.Ref != "" || rule.Min != 0 {
			return models.NewValidationError("MEMBERS rules take no ref or min")
		}
	case models.AccessCollectible:
		id, err := parseRef(rule)
		if err != nil {
			return err
		}
		c, err := repository.NewCollectibleRepository(db).GetByID(ctx, id)
		if err != nil {
			return notFound(err, "collectible", id)
		}
		if c.TribeID != tribeID {
			return models.NewValidationError("collectible belongs to another tribe")
		}
	case models.AccessPoints:
		id, err := parseRef(rule)
		if err != nil {
			return err
		}
		if _, err := repository.NewPointRepository(db).GetType(ctx, tribeID, id); err != nil {
			return notFound(err, "point type", id)
		}
	case models.AccessRole:
		if err := validRole(models.Role(rule.Ref)); err != nil {
			return err
		}
		if rule.Min != 0 {
			return models.NewValidationError("ROLE rules take no min")
		}
	default:
		return models.NewValidationError(fmt.Sprintf("unknown access kind %q", rule.Kind))
	}
	return nil
}

func parseRef(rule AccessRule) (uint, error) {
	id, err := strconv.ParseUint(rule.Ref, 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewValidationError(fmt.Sprintf("%s rules need a numeric ref", rule.Kind))
	}
	if rule.Min <= 0 {
		return 0, models.NewValidationError(fmt.Sprintf("%s rules need a positive min", rule.Kind))
	}
	return uint(id), nil
}

// CanView reports whether viewer may read post. The creator and tribe admins always can.
func (g *PostGate) CanView(ctx context.Context, db *gorm.DB, post *models.Post, viewer models.Address) (bool, error) {
	if !post.Gated {
		return true, nil
	}
	if viewer.IsZero() {
		return false, nil
	}
	if viewer == post.Creator {
		return true, nil
	}
	admin, err := repository.NewTribeRepository(db).IsAdmin(ctx, post.TribeID, viewer)
	if err != nil || admin {
		return admin, err
	}

	switch post.AccessKind {
	case models.AccessMembers:
		status, err := repository.NewMembershipRepository(db).Status(ctx, post.TribeID, viewer)
		return status == models.MemberStatusActive, err
	case models.AccessCollectible:
		id, _ := strconv.ParseUint(post.AccessRef, 10, 64)
		held, err := repository.NewCollectibleRepository(db).Holding(ctx, uint(id), viewer)
		return held >= post.AccessMin, err
	case models.AccessPoints:
		id, _ := strconv.ParseUint(post.AccessRef, 10, 64)
		bal, err := repository.NewPointRepository(db).Balance(ctx, post.TribeID, viewer, uint(id))
		return bal >= post.AccessMin, err
	case models.AccessRole:
		return hasRole(ctx, db, models.Role(post.AccessRef), viewer)
	}
	return false, nil
}
