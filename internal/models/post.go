package models

import "time"

// AccessKind selects the rule guarding a gated post.
type AccessKind string

const (
	AccessNone        AccessKind = ""
	AccessMembers     AccessKind = "MEMBERS"
	AccessCollectible AccessKind = "COLLECTIBLE"
	AccessPoints      AccessKind = "POINTS"
	AccessRole        AccessKind = "ROLE"
)

// ReactionKind is a deduplicated interaction on a post.
type ReactionKind string

const (
	ReactionLike  ReactionKind = "like"
	ReactionShare ReactionKind = "share"
	ReactionSave  ReactionKind = "save"
)

// Post is a content item inside a tribe. Posts are never deleted.
type Post struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	TribeID uint    `gorm:"not null;index" json:"tribe_id"`
	Creator Address `gorm:"type:varchar(42);not null;index" json:"creator"`
	// Metadata is empty for gated posts; the sealed copy lives in Sealed.
	Metadata     string     `gorm:"type:text" json:"metadata"`
	Gated        bool       `gorm:"not null;default:false" json:"gated"`
	AccessKind   AccessKind `gorm:"type:varchar(16)" json:"access_kind,omitempty"`
	AccessRef    string     `gorm:"type:varchar(64)" json:"access_ref,omitempty"`
	AccessMin    int64      `gorm:"not null;default:0" json:"access_min,omitempty"`
	Sealed       []byte     `json:"-"`
	LikeCount    int64      `gorm:"not null;default:0" json:"like_count"`
	CommentCount int64      `gorm:"not null;default:0" json:"comment_count"`
	ShareCount   int64      `gorm:"not null;default:0" json:"share_count"`
	SaveCount    int64      `gorm:"not null;default:0" json:"save_count"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	EditedAt     *time.Time `json:"edited_at,omitempty"`
	// Redacted is set on query results when the viewer fails the access rule.
	Redacted      bool   `gorm:"-" json:"redacted,omitempty"`
	SchemaVersion uint16 `gorm:"not null;default:1" json:"-"`
}

// PostReaction dedups like/share/save per (post, account, kind).
type PostReaction struct {
	PostID        uint         `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	Account       Address      `gorm:"primaryKey;type:varchar(42)" json:"account"`
	Kind          ReactionKind `gorm:"primaryKey;type:varchar(8)" json:"kind"`
	CreatedAt     time.Time    `json:"created_at"`
	SchemaVersion uint16       `gorm:"not null;default:1" json:"-"`
}

// Comment is a reply on a post. Comments are not deduplicated.
type Comment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"not null;index" json:"post_id"`
	Author        Address   `gorm:"type:varchar(42);not null" json:"author"`
	Metadata      string    `gorm:"type:text" json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}

// PosterActivity stores the last post time per account for the posting cooldown.
type PosterActivity struct {
	Account       Address   `gorm:"primaryKey;type:varchar(42)" json:"account"`
	LastPostAt    time.Time `json:"last_post_at"`
	SchemaVersion uint16    `gorm:"not null;default:1" json:"-"`
}
