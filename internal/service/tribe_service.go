package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tribehub/internal/cache"
	"tribehub/internal/ledger"
	"tribehub/internal/models"
	"tribehub/internal/repository"
	"tribehub/internal/signature"
	"tribehub/internal/validation"

	"gorm.io/gorm"
)

// TribeService owns the tribe and membership state machines.
type TribeService struct {
	exec *ledger.Executor
}

func NewTribeService(exec *ledger.Executor) *TribeService {
	return &TribeService{exec: exec}
}

// RequirementInput is a holding predicate: at least MinAmount of TokenID on Contract.
type RequirementInput struct {
	Contract  string `json:"contract"`
	TokenID   uint   `json:"token_id"`
	MinAmount int64  `json:"min_amount"`
}

type CreateTribeInput struct {
	Name          string
	Metadata      string
	InitialAdmins []models.Address
	JoinPolicy    models.JoinPolicy
	EntryFee      int64
	Requirements  []RequirementInput
}

type UpdateTribeInput struct {
	Metadata        *string
	WhitelistAdd    []models.Address
	WhitelistRemove []models.Address
}

type TribeConfigInput struct {
	JoinPolicy   models.JoinPolicy
	EntryFee     int64
	Requirements *[]RequirementInput
}

// TribeDetails is the read model of one tribe.
type TribeDetails struct {
	models.Tribe
	CoAdmins     []models.Address          `json:"co_admins"`
	Requirements []models.TribeRequirement `json:"requirements"`
}

// JoinResult reports the caller's membership after a join attempt.
type JoinResult struct {
	Status  models.MemberStatus `json:"status"`
	Receipt *ledger.Receipt     `json:"-"`
}

func (s *TribeService) validateRequirements(ctx context.Context, db *gorm.DB, reqs []RequirementInput) ([]models.TribeRequirement, error) {
	out := make([]models.TribeRequirement, 0, len(reqs))
	collectibles := repository.NewCollectibleRepository(db)
	for _, r := range reqs {
		if r.Contract != models.NativeCollectibleContract {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported requirement contract %q", r.Contract))
		}
		if r.MinAmount <= 0 {
			return nil, models.NewValidationError("requirement min_amount must be positive")
		}
		if _, err := collectibles.GetByID(ctx, r.TokenID); err != nil {
			return nil, notFound(err, "collectible", r.TokenID)
		}
		out = append(out, models.TribeRequirement{Contract: r.Contract, TokenID: r.TokenID, MinAmount: r.MinAmount})
	}
	return out, nil
}

// CreateTribe registers a tribe administered by the caller. The caller and every
// initial admin become ACTIVE members.
func (s *TribeService) CreateTribe(ctx context.Context, caller models.Address, in CreateTribeInput) (*models.Tribe, error) {
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateMetadata(in.Metadata); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.JoinPolicy == "" {
		in.JoinPolicy = models.JoinPolicyPublic
	}
	if !in.JoinPolicy.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown join policy %q", in.JoinPolicy))
	}
	if in.EntryFee < 0 {
		return nil, models.NewValidationError("entry fee must not be negative")
	}
	for _, a := range in.InitialAdmins {
		if err := requireAccount("initial admin", a); err != nil {
			return nil, err
		}
	}
	name := strings.TrimSpace(in.Name)
	key := validation.NormalizeName(name)

	var tribe *models.Tribe
	_, err := s.exec.Execute(ctx, ledger.Call{Op: "createTribe", Caller: caller}, func(tx *ledger.Tx) error {
		tribes := repository.NewTribeRepository(tx.DB)
		members := repository.NewMembershipRepository(tx.DB)

		existing, err := tribes.GetByNameKey(ctx, key)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return models.NewConflictError(fmt.Sprintf("tribe name %q is already taken", name))
		}
		reqs, err := s.validateRequirements(ctx, tx.DB, in.Requirements)
		if err != nil {
			return err
		}

		admins := dedupeAccounts(in.InitialAdmins, caller)
		tribe = &models.Tribe{
			Name:        name,
			NameKey:     key,
			MetadataURI: in.Metadata,
			Admin:       caller,
			JoinPolicy:  in.JoinPolicy,
			EntryFee:    in.EntryFee,
			Active:      true,
			MemberCount: int64(1 + len(admins)),
			CreatedAt:   tx.Now,
			UpdatedAt:   tx.Now,
		}
		if err := tribes.Create(ctx, tribe); err != nil {
			return err
		}
		if err := tribes.ReplaceRequirements(ctx, tribe.ID, reqs, tx.Now); err != nil {
			return err
		}
		for _, a := range append([]models.Address{caller}, admins...) {
			if a != caller {
				if _, err := tribes.AddAdmin(ctx, tribe.ID, a, tx.Now); err != nil {
					return err
				}
			}
			joined := tx.Now
			if err := members.Save(ctx, &models.Membership{
				TribeID:   tribe.ID,
				Account:   a,
				Status:    models.MemberStatusActive,
				JoinedAt:  &joined,
				CreatedAt: tx.Now,
				UpdatedAt: tx.Now,
			}); err != nil {
				return err
			}
		}

		return tx.Emit("TribeCreated", "tribe", tribe.ID, ledger.Fields{
			"name":           tribe.Name,
			"metadata":       tribe.MetadataURI,
			"admin":          caller,
			"initial_admins": admins,
			"join_policy":    tribe.JoinPolicy,
			"entry_fee":      tribe.EntryFee,
			"requirements":   len(reqs),
		})
	})
	if err != nil {
		return nil, err
	}
	return tribe, nil
}

// UpdateTribe changes metadata and the whitelist. Admin only.
func (s *TribeService) UpdateTribe(ctx context.Context, caller models.Address, id uint, in UpdateTribeInput) (*ledger.Receipt, error) {
	if in.Metadata != nil {
		if err := validation.ValidateMetadata(*in.Metadata); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	for _, a := range append(append([]models.Address{}, in.WhitelistAdd...), in.WhitelistRemove...) {
		if err := requireAccount("whitelist account", a); err != nil {
			return nil, err
		}
	}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "updateTribe", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		if err := requireTribeAdmin(ctx, tx.DB, tribe, caller); err != nil {
			return err
		}
		tribes := repository.NewTribeRepository(tx.DB)

		if in.Metadata != nil && *in.Metadata != tribe.MetadataURI {
			tribe.MetadataURI = *in.Metadata
			tribe.UpdatedAt = tx.Now
			if err := tribes.Update(ctx, tribe); err != nil {
				return err
			}
			if err := tx.Emit("TribeUpdated", "tribe", id, ledger.Fields{"metadata": tribe.MetadataURI}); err != nil {
				return err
			}
		}
		for _, a := range dedupeAccounts(in.WhitelistAdd) {
			added, err := tribes.AddToWhitelist(ctx, id, a, tx.Now)
			if err != nil {
				return err
			}
			if added {
				if err := tx.Emit("WhitelistUpdated", "tribe", id, ledger.Fields{"account": a, "whitelisted": true}); err != nil {
					return err
				}
			}
		}
		for _, a := range dedupeAccounts(in.WhitelistRemove) {
			removed, err := tribes.RemoveFromWhitelist(ctx, id, a)
			if err != nil {
				return err
			}
			if removed {
				if err := tx.Emit("WhitelistUpdated", "tribe", id, ledger.Fields{"account": a, "whitelisted": false}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		cache.InvalidateTribe(ctx, id)
	}
	return receipt, err
}

// UpdateTribeConfig changes the join policy, entry fee and, when given, the requirements. Admin only.
func (s *TribeService) UpdateTribeConfig(ctx context.Context, caller models.Address, id uint, in TribeConfigInput) (*ledger.Receipt, error) {
	if !in.JoinPolicy.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown join policy %q", in.JoinPolicy))
	}
	if in.EntryFee < 0 {
		return nil, models.NewValidationError("entry fee must not be negative")
	}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "updateTribeConfig", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		if err := requireTribeAdmin(ctx, tx.DB, tribe, caller); err != nil {
			return err
		}
		tribes := repository.NewTribeRepository(tx.DB)

		changed := tribe.JoinPolicy != in.JoinPolicy || tribe.EntryFee != in.EntryFee
		if changed {
			tribe.JoinPolicy = in.JoinPolicy
			tribe.EntryFee = in.EntryFee
			tribe.UpdatedAt = tx.Now
			if err := tribes.Update(ctx, tribe); err != nil {
				return err
			}
		}
		fields := ledger.Fields{"join_policy": tribe.JoinPolicy, "entry_fee": tribe.EntryFee}
		if in.Requirements != nil {
			reqs, err := s.validateRequirements(ctx, tx.DB, *in.Requirements)
			if err != nil {
				return err
			}
			if err := tribes.ReplaceRequirements(ctx, id, reqs, tx.Now); err != nil {
				return err
			}
			fields["requirements"] = len(reqs)
			changed = true
		}
		if !changed {
			return nil
		}
		return tx.Emit("TribeConfigUpdated", "tribe", id, fields)
	})
	if err == nil {
		cache.InvalidateTribe(ctx, id)
	}
	return receipt, err
}

// DeactivateTribe stops a tribe from accepting joins, posts and claims. Tribe admin or super-admin.
func (s *TribeService) DeactivateTribe(ctx context.Context, caller models.Address, id uint) (*ledger.Receipt, error) {
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "deactivateTribe", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		admin, err := isTribeAdmin(ctx, tx.DB, tribe, caller)
		if err != nil {
			return err
		}
		if !admin {
			super, err := isSuperAdmin(ctx, tx.DB, caller)
			if err != nil {
				return err
			}
			if !super {
				return models.NewNotAdminError(id)
			}
		}
		if !tribe.Active {
			return nil
		}
		tribe.Active = false
		tribe.UpdatedAt = tx.Now
		if err := repository.NewTribeRepository(tx.DB).Update(ctx, tribe); err != nil {
			return err
		}
		return tx.Emit("TribeDeactivated", "tribe", id, ledger.Fields{"sender": caller})
	})
	if err == nil {
		cache.InvalidateTribe(ctx, id)
	}
	return receipt, err
}

// requirementsMet checks every holding predicate of a tribe against account.
func requirementsMet(ctx context.Context, db *gorm.DB, tribeID uint, account models.Address) (bool, error) {
	reqs, err := repository.NewTribeRepository(db).Requirements(ctx, tribeID)
	if err != nil {
		return false, err
	}
	collectibles := repository.NewCollectibleRepository(db)
	for _, r := range reqs {
		if r.Contract != models.NativeCollectibleContract {
			return false, nil
		}
		held, err := collectibles.Holding(ctx, r.TokenID, account)
		if err != nil {
			return false, err
		}
		if held < r.MinAmount {
			return false, nil
		}
	}
	return true, nil
}

func inviteHash(code string) string {
	return signature.Keccak256Hex([]byte(code))
}

// JoinTribe applies the tribe's join policy to the caller. payment is escrowed from the
// caller's wallet; the entry fee goes to the tribe admin and the rest is refunded.
func (s *TribeService) JoinTribe(ctx context.Context, caller models.Address, id uint, payment int64, inviteCode string) (*JoinResult, error) {
	result := &JoinResult{}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "joinTribe", Caller: caller, Value: payment, Payable: true}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		members := repository.NewMembershipRepository(tx.DB)
		current, err := members.Get(ctx, id, caller)
		if err != nil {
			return err
		}
		status := models.MemberStatusNone
		if current != nil {
			status = current.Status
		}
		switch status {
		case models.MemberStatusBanned:
			return models.NewJoinDeniedError("caller is banned from this tribe")
		case models.MemberStatusActive:
			result.Status = models.MemberStatusActive
			return nil
		}

		ok, err := requirementsMet(ctx, tx.DB, id, caller)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewJoinDeniedError("caller does not hold the required collectibles")
		}

		whitelisted, err := repository.NewTribeRepository(tx.DB).IsWhitelisted(ctx, id, caller)
		if err != nil {
			return err
		}

		next := models.MemberStatusActive
		var feePaid int64
		switch tribe.JoinPolicy {
		case models.JoinPolicyPublic:
		case models.JoinPolicyPrivate:
			switch {
			case whitelisted:
			case tribe.EntryFee > 0:
				if tx.Held() < tribe.EntryFee {
					return models.NewJoinDeniedError(fmt.Sprintf("entry fee is %d, paid %d", tribe.EntryFee, tx.Held()))
				}
				if err := tx.Pay(tribe.Admin, tribe.EntryFee, "entry_fee"); err != nil {
					return err
				}
				feePaid = tribe.EntryFee
			default:
				next = models.MemberStatusPending
			}
		case models.JoinPolicyInviteOnly:
			if !whitelisted {
				if err := s.consumeInvite(ctx, tx, id, inviteCode); err != nil {
					return err
				}
			}
		}

		result.Status = next
		if next == status {
			return nil
		}
		m := current
		if m == nil {
			m = &models.Membership{TribeID: id, Account: caller, CreatedAt: tx.Now}
		}
		m.Status = next
		m.UpdatedAt = tx.Now
		if next == models.MemberStatusActive {
			joined := tx.Now
			m.JoinedAt = &joined
			if err := repository.NewTribeRepository(tx.DB).AdjustMemberCount(ctx, id, 1); err != nil {
				return err
			}
		}
		if err := members.Save(ctx, m); err != nil {
			return err
		}
		name := "MemberJoined"
		if next == models.MemberStatusPending {
			name = "MembershipRequested"
		}
		return tx.Emit(name, "tribe", id, ledger.Fields{"account": caller, "status": next, "fee_paid": feePaid})
	})
	if err != nil {
		return nil, err
	}
	result.Receipt = receipt
	if !receipt.Noop() {
		cache.InvalidateTribe(ctx, id)
	}
	return result, nil
}

func (s *TribeService) consumeInvite(ctx context.Context, tx *ledger.Tx, tribeID uint, code string) error {
	if code == "" {
		return models.NewJoinDeniedError("an invite is required to join this tribe")
	}
	members := repository.NewMembershipRepository(tx.DB)
	invite, err := members.InviteByHash(ctx, tribeID, inviteHash(code))
	if err != nil {
		return err
	}
	if invite == nil {
		return models.NewJoinDeniedError("invite code is not valid for this tribe")
	}
	ok, err := members.ConsumeInvite(ctx, invite.ID, tx.Now)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewJoinDeniedError("invite code is expired or used up")
	}
	return tx.Emit("InviteConsumed", "invite", invite.ID, ledger.Fields{"tribe_id": tribeID, "account": tx.Caller})
}

// CreateInvite stores a hashed invite code. Admin only.
func (s *TribeService) CreateInvite(ctx context.Context, caller models.Address, id uint, code string, maxUses int64, expiresAt *time.Time) (*models.TribeInvite, error) {
	if len(code) < 6 || len(code) > 128 {
		return nil, models.NewValidationError("invite code must be 6-128 characters")
	}
	if err := requirePositive("max uses", maxUses); err != nil {
		return nil, err
	}
	var invite *models.TribeInvite
	_, err := s.exec.Execute(ctx, ledger.Call{Op: "createInvite", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		if err := requireTribeAdmin(ctx, tx.DB, tribe, caller); err != nil {
			return err
		}
		if expiresAt != nil && !expiresAt.After(tx.Now) {
			return models.NewValidationError("invite expiry must be in the future")
		}
		members := repository.NewMembershipRepository(tx.DB)
		hash := inviteHash(code)
		if existing, err := members.InviteByHash(ctx, id, hash); err != nil {
			return err
		} else if existing != nil {
			return models.NewConflictError("invite code already exists")
		}
		invite = &models.TribeInvite{
			TribeID:   id,
			CodeHash:  hash,
			MaxUses:   maxUses,
			ExpiresAt: expiresAt,
			CreatedBy: caller,
			CreatedAt: tx.Now,
		}
		if err := members.CreateInvite(ctx, invite); err != nil {
			return err
		}
		return tx.Emit("InviteCreated", "invite", invite.ID, ledger.Fields{
			"tribe_id":   id,
			"max_uses":   maxUses,
			"expires_at": expiresAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return invite, nil
}

// setStatus moves account from one of the allowed statuses to next, keeping member_count
// in step with ACTIVE rows. It returns false when the current status is not allowed.
func setStatus(ctx context.Context, tx *ledger.Tx, tribeID uint, account models.Address, next models.MemberStatus, allowed ...models.MemberStatus) (models.MemberStatus, bool, error) {
	members := repository.NewMembershipRepository(tx.DB)
	m, err := members.Get(ctx, tribeID, account)
	if err != nil {
		return "", false, err
	}
	current := models.MemberStatusNone
	if m != nil {
		current = m.Status
	}
	ok := false
	for _, a := range allowed {
		if a == current {
			ok = true
			break
		}
	}
	if !ok || current == next {
		return current, false, nil
	}

	var delta int64
	switch {
	case current == models.MemberStatusActive:
		delta = -1
	case next == models.MemberStatusActive:
		delta = 1
	}
	if delta != 0 {
		if err := repository.NewTribeRepository(tx.DB).AdjustMemberCount(ctx, tribeID, delta); err != nil {
			return "", false, err
		}
	}

	if next == models.MemberStatusNone {
		return current, true, members.Delete(ctx, tribeID, account)
	}
	if m == nil {
		m = &models.Membership{TribeID: tribeID, Account: account, CreatedAt: tx.Now}
	}
	m.Status = next
	m.UpdatedAt = tx.Now
	if next == models.MemberStatusActive {
		joined := tx.Now
		m.JoinedAt = &joined
	}
	return current, true, members.Save(ctx, m)
}

// moderate runs a membership transition performed by a tribe admin on account.
func (s *TribeService) moderate(ctx context.Context, op string, caller models.Address, id uint, account models.Address, next models.MemberStatus, allowed ...models.MemberStatus) (*ledger.Receipt, error) {
	if err := requireAccount("account", account); err != nil {
		return nil, err
	}
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: op, Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadActiveTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		if err := requireTribeAdmin(ctx, tx.DB, tribe, caller); err != nil {
			return err
		}
		if next == models.MemberStatusBanned {
			target, err := isTribeAdmin(ctx, tx.DB, tribe, account)
			if err != nil {
				return err
			}
			if target {
				return models.NewValidationError("tribe admins cannot be banned")
			}
		}
		previous, changed, err := setStatus(ctx, tx, id, account, next, allowed...)
		if err != nil || !changed {
			return err
		}
		return tx.Emit("MemberStatusChanged", "tribe", id, ledger.Fields{
			"account":  account,
			"previous": previous,
			"status":   next,
			"sender":   caller,
		})
	})
	if err == nil && !receipt.Noop() {
		cache.InvalidateTribe(ctx, id)
	}
	return receipt, err
}

// ApproveMember activates a PENDING request. Admin only.
func (s *TribeService) ApproveMember(ctx context.Context, caller models.Address, id uint, account models.Address) (*ledger.Receipt, error) {
	return s.moderate(ctx, "approveMember", caller, id, account, models.MemberStatusActive, models.MemberStatusPending)
}

// RejectMember drops a PENDING request back to NONE. Admin only.
func (s *TribeService) RejectMember(ctx context.Context, caller models.Address, id uint, account models.Address) (*ledger.Receipt, error) {
	return s.moderate(ctx, "rejectMember", caller, id, account, models.MemberStatusNone, models.MemberStatusPending)
}

// BanMember bans account from any status. Admin only; admins cannot be banned.
func (s *TribeService) BanMember(ctx context.Context, caller models.Address, id uint, account models.Address) (*ledger.Receipt, error) {
	return s.moderate(ctx, "banMember", caller, id, account, models.MemberStatusBanned,
		models.MemberStatusNone, models.MemberStatusPending, models.MemberStatusActive)
}

// UnbanMember restores a banned account to ACTIVE. Admin only.
func (s *TribeService) UnbanMember(ctx context.Context, caller models.Address, id uint, account models.Address) (*ledger.Receipt, error) {
	return s.moderate(ctx, "unbanMember", caller, id, account, models.MemberStatusActive, models.MemberStatusBanned)
}

// LeaveTribe ends the caller's membership or withdraws a pending request.
func (s *TribeService) LeaveTribe(ctx context.Context, caller models.Address, id uint) (*ledger.Receipt, error) {
	receipt, err := s.exec.Execute(ctx, ledger.Call{Op: "leaveTribe", Caller: caller}, func(tx *ledger.Tx) error {
		tribe, err := loadTribe(ctx, tx.DB, id)
		if err != nil {
			return err
		}
		if tribe.Admin == caller {
			return models.NewValidationError("the tribe's primary admin cannot leave")
		}
		status, err := repository.NewMembershipRepository(tx.DB).Status(ctx, id, caller)
		if err != nil {
			return err
		}
		if status == models.MemberStatusBanned {
			return models.NewValidationError("banned accounts cannot leave")
		}
		previous, changed, err := setStatus(ctx, tx, id, caller, models.MemberStatusNone,
			models.MemberStatusPending, models.MemberStatusActive)
		if err != nil || !changed {
			return err
		}
		if err := tx.DB.Where("tribe_id = ? AND account = ?", id, caller).Delete(&models.TribeAdmin{}).Error; err != nil {
			return err
		}
		return tx.Emit("MemberLeft", "tribe", id, ledger.Fields{"account": caller, "previous": previous})
	})
	if err == nil && !receipt.Noop() {
		cache.InvalidateTribe(ctx, id)
	}
	return receipt, err
}

// FollowTribe subscribes the caller to a tribe's feed without joining.
func (s *TribeService) FollowTribe(ctx context.Context, caller models.Address, id uint) (*ledger.Receipt, error) {
	return s.exec.Execute(ctx, ledger.Call{Op: "followTribe", Caller: caller}, func(tx *ledger.Tx) error {
		if _, err := loadActiveTribe(ctx, tx.DB, id); err != nil {
			return err
		}
		added, err := repository.NewMembershipRepository(tx.DB).Follow(ctx, id, caller, tx.Now)
		if err != nil || !added {
			return err
		}
		return tx.Emit("TribeFollowed", "tribe", id, ledger.Fields{"account": caller})
	})
}

func (s *TribeService) UnfollowTribe(ctx context.Context, caller models.Address, id uint) (*ledger.Receipt, error) {
	return s.exec.Execute(ctx, ledger.Call{Op: "unfollowTribe", Caller: caller}, func(tx *ledger.Tx) error {
		removed, err := repository.NewMembershipRepository(tx.DB).Unfollow(ctx, id, caller)
		if err != nil || !removed {
			return err
		}
		return tx.Emit("TribeUnfollowed", "tribe", id, ledger.Fields{"account": caller})
	})
}

func (s *TribeService) reader() *gorm.DB {
	return s.exec.DB()
}

func (s *TribeService) IsAddressWhitelisted(ctx context.Context, id uint, account models.Address) (bool, error) {
	if _, err := loadTribe(ctx, s.reader(), id); err != nil {
		return false, err
	}
	return repository.NewTribeRepository(s.reader()).IsWhitelisted(ctx, id, account)
}

// GetMemberStatus returns NONE for accounts that never interacted with the tribe.
func (s *TribeService) GetMemberStatus(ctx context.Context, id uint, account models.Address) (models.MemberStatus, error) {
	if _, err := loadTribe(ctx, s.reader(), id); err != nil {
		return "", err
	}
	return repository.NewMembershipRepository(s.reader()).Status(ctx, id, account)
}

func (s *TribeService) IsTribeAdmin(ctx context.Context, id uint, account models.Address) (bool, error) {
	tribe, err := loadTribe(ctx, s.reader(), id)
	if err != nil {
		return false, err
	}
	return isTribeAdmin(ctx, s.reader(), tribe, account)
}

// GetAllTribes lists tribes in creation order, deactivated ones included.
func (s *TribeService) GetAllTribes(ctx context.Context, offset, limit int) (*Page[models.Tribe], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewTribeRepository(s.reader()).List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

func (s *TribeService) GetTribeDetails(ctx context.Context, id uint) (*TribeDetails, error) {
	var details TribeDetails
	err := cache.Aside(ctx, cache.TribeKey(id), &details, cache.TribeTTL, func() error {
		tribe, err := loadTribe(ctx, s.reader(), id)
		if err != nil {
			return err
		}
		tribes := repository.NewTribeRepository(s.reader())
		admins, err := tribes.Admins(ctx, id)
		if err != nil {
			return err
		}
		reqs, err := tribes.Requirements(ctx, id)
		if err != nil {
			return err
		}
		details = TribeDetails{Tribe: *tribe, CoAdmins: admins, Requirements: reqs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// GetTribeByName resolves a tribe by its normalized name.
func (s *TribeService) GetTribeByName(ctx context.Context, name string) (*models.Tribe, error) {
	key := validation.NormalizeName(name)
	if key == "" {
		return nil, models.NewValidationError("name is required")
	}
	tribe, err := repository.NewTribeRepository(s.reader()).GetByNameKey(ctx, key)
	if err != nil {
		return nil, notFound(err, "tribe", name)
	}
	return tribe, nil
}

// GetMembers lists members of a tribe with the given status, ACTIVE by default.
func (s *TribeService) GetMembers(ctx context.Context, id uint, status models.MemberStatus, offset, limit int) (*Page[models.Membership], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = models.MemberStatusActive
	}
	switch status {
	case models.MemberStatusActive, models.MemberStatusPending, models.MemberStatusBanned:
	default:
		return nil, models.NewValidationError(fmt.Sprintf("cannot list members with status %q", status))
	}
	if _, err := loadTribe(ctx, s.reader(), id); err != nil {
		return nil, err
	}
	items, total, err := repository.NewMembershipRepository(s.reader()).Members(ctx, id, status, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}

// GetUserTribes lists the tribes account is an ACTIVE member of.
func (s *TribeService) GetUserTribes(ctx context.Context, account models.Address, offset, limit int) (*Page[models.Tribe], error) {
	limit, err := checkWindow(offset, limit)
	if err != nil {
		return nil, err
	}
	items, total, err := repository.NewMembershipRepository(s.reader()).UserTribes(ctx, account, offset, limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total), nil
}
