package server

import (
	"tribehub/internal/models"
	"tribehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateTribeRequest is the body of POST /api/tribes.
type CreateTribeRequest struct {
	Name          string                     `json:"name"`
	Metadata      string                     `json:"metadata"`
	InitialAdmins []string                   `json:"initial_admins"`
	JoinPolicy    models.JoinPolicy          `json:"join_policy"`
	EntryFee      int64                      `json:"entry_fee"`
	Requirements  []service.RequirementInput `json:"requirements"`
}

// UpdateTribeRequest is the body of PATCH /api/tribes/:id.
type UpdateTribeRequest struct {
	Metadata        *string  `json:"metadata"`
	WhitelistAdd    []string `json:"whitelist_add"`
	WhitelistRemove []string `json:"whitelist_remove"`
}

// TribeConfigRequest is the body of PUT /api/tribes/:id/config.
type TribeConfigRequest struct {
	JoinPolicy   models.JoinPolicy           `json:"join_policy"`
	EntryFee     int64                       `json:"entry_fee"`
	Requirements *[]service.RequirementInput `json:"requirements"`
}

type joinRequest struct {
	Payment    int64  `json:"payment"`
	InviteCode string `json:"invite_code"`
}

type inviteRequest struct {
	Code      string `json:"code"`
	MaxUses   int64  `json:"max_uses"`
	ExpiresAt string `json:"expires_at"`
}

// GetAllTribes handles GET /api/tribes
// @Summary List tribes
// @Description List tribes.
// @Tags tribes
// @Produce json
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Tribe]
// @Failure 400 {object} models.ErrorResponse
// @Router /tribes [get]
func (s *Server) GetAllTribes(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.tribes.GetAllTribes(c.UserContext(), p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetTribeDetails handles GET /api/tribes/:id
// @Summary Get tribe details
// @Description Get tribe details.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} service.TribeDetails
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id} [get]
func (s *Server) GetTribeDetails(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	details, err := s.tribes.GetTribeDetails(c.UserContext(), id)
	return respondValue(c, fiber.StatusOK, details, err)
}

// GetTribeByName handles GET /api/tribes/by-name/:name
// @Summary Find tribe by name
// @Description Names match after normalization.
// @Tags tribes
// @Produce json
// @Param name path string true "Tribe name"
// @Success 200 {object} models.Tribe
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/by-name/{name} [get]
func (s *Server) GetTribeByName(c *fiber.Ctx) error {
	tribe, err := s.tribes.GetTribeByName(c.UserContext(), c.Params("name"))
	return respondValue(c, fiber.StatusOK, tribe, err)
}

// CreateTribe handles POST /api/tribes
// @Summary Create tribe
// @Description Create tribe.
// @Tags tribes
// @Accept json
// @Produce json
// @Param request body server.CreateTribeRequest true "Request body"
// @Success 201 {object} models.Tribe
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes [post]
func (s *Server) CreateTribe(c *fiber.Ctx) error {
	var req CreateTribeRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	admins, err := parseAddresses(req.InitialAdmins)
	if err != nil {
		return respondError(c, err)
	}
	tribe, err := s.tribes.CreateTribe(c.UserContext(), caller(c), service.CreateTribeInput{
		Name:          req.Name,
		Metadata:      req.Metadata,
		InitialAdmins: admins,
		JoinPolicy:    req.JoinPolicy,
		EntryFee:      req.EntryFee,
		Requirements:  req.Requirements,
	})
	return respondValue(c, fiber.StatusCreated, tribe, err)
}

// UpdateTribe handles PATCH /api/tribes/:id
// @Summary Update tribe
// @Description Update metadata and the whitelist. Tribe admins only.
// @Tags tribes
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.UpdateTribeRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id} [patch]
func (s *Server) UpdateTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpdateTribeRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	add, err := parseAddresses(req.WhitelistAdd)
	if err != nil {
		return respondError(c, err)
	}
	remove, err := parseAddresses(req.WhitelistRemove)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.tribes.UpdateTribe(c.UserContext(), caller(c), id, service.UpdateTribeInput{
		Metadata:        req.Metadata,
		WhitelistAdd:    add,
		WhitelistRemove: remove,
	})
	return respondReceipt(c, receipt, err)
}

// UpdateTribeConfig handles PUT /api/tribes/:id/config
// @Summary Update tribe join config
// @Description Update tribe join config.
// @Tags tribes
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.TribeConfigRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/config [put]
func (s *Server) UpdateTribeConfig(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req TribeConfigRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.tribes.UpdateTribeConfig(c.UserContext(), caller(c), id, service.TribeConfigInput{
		JoinPolicy:   req.JoinPolicy,
		EntryFee:     req.EntryFee,
		Requirements: req.Requirements,
	})
	return respondReceipt(c, receipt, err)
}

// DeactivateTribe handles DELETE /api/tribes/:id
// @Summary Deactivate tribe
// @Description Deactivate tribe.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id} [delete]
func (s *Server) DeactivateTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.tribes.DeactivateTribe(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// JoinTribe handles POST /api/tribes/:id/join
// @Summary Join tribe
// @Description Join under the tribe policy. Unspent payment is refunded.
// @Tags tribes
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.joinRequest false "Request body"
// @Success 200 {object} object{status=string,receipt=server.ReceiptResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/join [post]
func (s *Server) JoinTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req joinRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return nil
		}
	}
	result, err := s.tribes.JoinTribe(c.UserContext(), caller(c), id, req.Payment, req.InviteCode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": result.Status, "receipt": toReceipt(result.Receipt)})
}

// LeaveTribe handles POST /api/tribes/:id/leave
// @Summary Leave tribe
// @Description Leave tribe.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/leave [post]
func (s *Server) LeaveTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.tribes.LeaveTribe(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// FollowTribe handles POST /api/tribes/:id/follow
// @Summary Follow tribe
// @Description Follow tribe.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/follow [post]
func (s *Server) FollowTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.tribes.FollowTribe(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// UnfollowTribe handles DELETE /api/tribes/:id/follow
// @Summary Unfollow tribe
// @Description Unfollow tribe.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/follow [delete]
func (s *Server) UnfollowTribe(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.tribes.UnfollowTribe(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// CreateInvite handles POST /api/tribes/:id/invites
// @Summary Create invite code
// @Description Create invite code.
// @Tags tribes
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.inviteRequest true "Request body"
// @Success 201 {object} models.TribeInvite
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/invites [post]
func (s *Server) CreateInvite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req inviteRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	expires, err := parseOptionalTime(c, "expires_at", req.ExpiresAt)
	if err != nil {
		return nil
	}
	invite, err := s.tribes.CreateInvite(c.UserContext(), caller(c), id, req.Code, req.MaxUses, expires)
	return respondValue(c, fiber.StatusCreated, invite, err)
}

// withMember parses the tribe id and member address from the route and calls apply.
func withMember(c *fiber.Ctx, apply func(id uint, account models.Address) error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	return apply(id, account)
}

// ApproveMember handles POST /api/tribes/:id/members/:address/approve
// @Summary Approve pending member
// @Description Approve pending member.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/members/{address}/approve [post]
func (s *Server) ApproveMember(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		receipt, err := s.tribes.ApproveMember(c.UserContext(), caller(c), id, account)
		return respondReceipt(c, receipt, err)
	})
}

// RejectMember handles POST /api/tribes/:id/members/:address/reject
// @Summary Reject pending member
// @Description Reject pending member.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/members/{address}/reject [post]
func (s *Server) RejectMember(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		receipt, err := s.tribes.RejectMember(c.UserContext(), caller(c), id, account)
		return respondReceipt(c, receipt, err)
	})
}

// BanMember handles POST /api/tribes/:id/members/:address/ban
// @Summary Ban member
// @Description Ban member.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/members/{address}/ban [post]
func (s *Server) BanMember(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		receipt, err := s.tribes.BanMember(c.UserContext(), caller(c), id, account)
		return respondReceipt(c, receipt, err)
	})
}

// UnbanMember handles POST /api/tribes/:id/members/:address/unban
// @Summary Unban member
// @Description Unban member.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/members/{address}/unban [post]
func (s *Server) UnbanMember(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		receipt, err := s.tribes.UnbanMember(c.UserContext(), caller(c), id, account)
		return respondReceipt(c, receipt, err)
	})
}

// GetMembers handles GET /api/tribes/:id/members?status=
// @Summary List members
// @Description List members.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param status query string false "Filter by membership status"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Membership]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/members [get]
func (s *Server) GetMembers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.tribes.GetMembers(c.UserContext(), id, models.MemberStatus(c.Query("status")), p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetMemberStatus handles GET /api/tribes/:id/members/:address
// @Summary Get member status
// @Description Get member status.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} object{tribe_id=int,account=string,status=string,admin=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/members/{address} [get]
func (s *Server) GetMemberStatus(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		ctx := c.UserContext()
		status, err := s.tribes.GetMemberStatus(ctx, id, account)
		if err != nil {
			return respondError(c, err)
		}
		admin, err := s.tribes.IsTribeAdmin(ctx, id, account)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tribe_id": id, "account": account, "status": status, "admin": admin})
	})
}

// GetWhitelisted handles GET /api/tribes/:id/whitelist/:address
// @Summary Check whitelist
// @Description Check whitelist.
// @Tags tribes
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} object{tribe_id=int,account=string,whitelisted=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/whitelist/{address} [get]
func (s *Server) GetWhitelisted(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		ok, err := s.tribes.IsAddressWhitelisted(c.UserContext(), id, account)
		return respondValue(c, fiber.StatusOK, fiber.Map{"tribe_id": id, "account": account, "whitelisted": ok}, err)
	})
}

// GetUserTribes handles GET /api/accounts/:address/tribes
// @Summary List account tribes
// @Description List account tribes.
// @Tags tribes
// @Produce json
// @Param address path string true "Account address"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Tribe]
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/{address}/tribes [get]
func (s *Server) GetUserTribes(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.tribes.GetUserTribes(c.UserContext(), account, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}
