// Package seed populates a ledger with demo tribes, members, posts and rewards for
// development. Everything goes through the services, so the journal records every step.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"

	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/service"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls how much demo data the seeder creates.
type Options struct {
	Tribes        int
	Members       int
	PostsPerTribe int
	// Seed makes the generated data reproducible when non-zero.
	Seed int64
}

// DefaultOptions is the dataset created by cmd/seed without flags.
func DefaultOptions() Options {
	return Options{Tribes: 5, Members: 25, PostsPerTribe: 8}
}

// Result summarizes what Run created.
type Result struct {
	Tribes       []models.Tribe
	Members      []models.Address
	Posts        int
	Collectibles int
	Claims       int
}

// Seeder drives the services as the genesis admin and a crowd of generated accounts.
type Seeder struct {
	genesis models.Address
	rng     *rand.Rand

	access       *service.AccessService
	wallets      *service.WalletService
	tribes       *service.TribeService
	content      *service.ContentService
	economy      *service.EconomyService
	collectibles *service.CollectibleService
}

// NewSeeder builds the services it needs over exec. genesis must hold DEFAULT_ADMIN or
// the ledger must have no super-admin yet.
func NewSeeder(exec *ledger.Executor, genesis models.Address, contentKey []byte) (*Seeder, error) {
	content, err := service.NewContentService(exec, service.ContentConfig{Key: contentKey})
	if err != nil {
		return nil, err
	}
	return &Seeder{
		genesis:      genesis,
		rng:          rand.New(rand.NewSource(1)),
		access:       service.NewAccessService(exec),
		wallets:      service.NewWalletService(exec),
		tribes:       service.NewTribeService(exec),
		content:      content,
		economy:      service.NewEconomyService(exec),
		collectibles: service.NewCollectibleService(exec),
	}, nil
}

// Run creates the dataset described by opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Seed != 0 {
		gofakeit.Seed(opts.Seed)
		s.rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		gofakeit.Seed(0)
	}

	if _, err := s.access.Bootstrap(ctx, s.genesis); err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	res := &Result{}
	for i := 0; i < opts.Members; i++ {
		account := Account()
		if _, err := s.wallets.Mint(ctx, s.genesis, account, 1_000+int64(s.rng.Intn(9_000))); err != nil {
			return nil, fmt.Errorf("fund member %d: %w", i, err)
		}
		res.Members = append(res.Members, account)
	}
	log.Printf("✓ %d funded accounts", len(res.Members))
	if len(res.Members) == 0 {
		return res, nil
	}

	for i := 0; i < opts.Tribes; i++ {
		admin := res.Members[i%len(res.Members)]
		tribe, err := s.tribes.CreateTribe(ctx, admin, service.CreateTribeInput{
			Name:       TribeName(i),
			Metadata:   "ipfs://" + gofakeit.UUID(),
			JoinPolicy: models.JoinPolicyPublic,
			EntryFee:   int64(s.rng.Intn(3)) * 10,
		})
		if err != nil {
			return nil, fmt.Errorf("create tribe %d: %w", i, err)
		}
		res.Tribes = append(res.Tribes, *tribe)

		if err := s.populate(ctx, tribe, res, opts); err != nil {
			return nil, fmt.Errorf("populate %q: %w", tribe.Name, err)
		}
	}
	log.Printf("✓ %d tribes, %d posts, %d collectibles, %d claims",
		len(res.Tribes), res.Posts, res.Collectibles, res.Claims)
	return res, nil
}

// populate joins members, posts content and sets up a point economy with one reward.
func (s *Seeder) populate(ctx context.Context, tribe *models.Tribe, res *Result, opts Options) error {
	var joined []models.Address
	for _, m := range res.Members {
		if m == tribe.Admin {
			joined = append(joined, m)
			continue
		}
		if s.rng.Intn(2) == 0 {
			continue
		}
		if _, err := s.tribes.JoinTribe(ctx, m, tribe.ID, tribe.EntryFee, ""); err != nil {
			return fmt.Errorf("join: %w", err)
		}
		joined = append(joined, m)
	}

	pt, err := s.economy.RegisterPointType(ctx, tribe.Admin, tribe.ID, "Karma", gofakeit.Sentence(6))
	if err != nil {
		return err
	}
	action := "post.created"
	if _, err := s.economy.RegisterAction(ctx, tribe.Admin, tribe.ID, action, pt.ID); err != nil {
		return err
	}

	var posts []*models.Post
	for i := 0; i < opts.PostsPerTribe; i++ {
		author := joined[s.rng.Intn(len(joined))]
		in := service.CreatePostInput{TribeID: tribe.ID, Metadata: PostMetadata()}
		if s.rng.Intn(4) == 0 {
			in.Access = &service.AccessRule{Kind: models.AccessMembers}
		}
		post, err := s.content.CreatePost(ctx, author, in)
		if err != nil {
			return fmt.Errorf("post: %w", err)
		}
		posts = append(posts, post)
		res.Posts++
		if _, err := s.economy.AwardPoints(ctx, tribe.Admin, tribe.ID, author, 10, action); err != nil {
			return fmt.Errorf("award: %w", err)
		}
	}

	for _, post := range posts {
		for _, m := range joined {
			if s.rng.Intn(3) != 0 {
				continue
			}
			if _, err := s.content.Like(ctx, m, post.ID); err != nil {
				return fmt.Errorf("like: %w", err)
			}
			if s.rng.Intn(2) == 0 {
				if _, err := s.content.Comment(ctx, m, post.ID, gofakeit.Sentence(8)); err != nil {
					return fmt.Errorf("comment: %w", err)
				}
			}
		}
	}

	badge, err := s.collectibles.CreateCollectible(ctx, tribe.Admin, service.CreateCollectibleInput{
		TribeID:        tribe.ID,
		Name:           gofakeit.Adjective() + " badge",
		Symbol:         strings.ToUpper(gofakeit.LetterN(4)),
		Metadata:       "ipfs://" + gofakeit.UUID(),
		MaxSupply:      int64(len(joined)),
		PointsRequired: 10,
		PointTypeID:    pt.ID,
	})
	if err != nil {
		return fmt.Errorf("collectible: %w", err)
	}
	res.Collectibles++

	for _, m := range joined {
		bal, err := s.economy.PointBalance(ctx, tribe.ID, m, pt.ID)
		if err != nil {
			return err
		}
		if bal < badge.PointsRequired {
			continue
		}
		if _, err := s.collectibles.ClaimCollectible(ctx, m, tribe.ID, badge.ID, 0); err != nil {
			return fmt.Errorf("claim: %w", err)
		}
		res.Claims++
	}
	return nil
}
