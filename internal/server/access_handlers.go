package server

import (
	"tribehub/internal/models"
	"tribehub/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type accountRequest struct {
	Account string `json:"account"`
}

type roleAdminRequest struct {
	AdminRole models.Role `json:"admin_role"`
}

type amountRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

// parseAddresses canonicalizes a list of addresses from a request body.
func parseAddresses(values []string) ([]models.Address, error) {
	out := make([]models.Address, 0, len(values))
	for _, v := range values {
		a, err := models.ParseAddress(v)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func roleParam(c *fiber.Ctx) models.Role {
	return models.Role(c.Params("role"))
}

// GrantRole handles POST /api/roles/:role/grant
// @Summary Grant role
// @Description Grant a role to an account. Granting a held role is a no-op.
// @Tags roles
// @Accept json
// @Produce json
// @Param role path string true "Role"
// @Param request body server.accountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /roles/{role}/grant [post]
func (s *Server) GrantRole(c *fiber.Ctx) error {
	var req accountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.access.Grant(c.UserContext(), caller(c), roleParam(c), account)
	return respondReceipt(c, receipt, err)
}

// RevokeRole handles POST /api/roles/:role/revoke
// @Summary Revoke role
// @Description Revoke a role from an account. Revoking a role not held is a no-op.
// @Tags roles
// @Accept json
// @Produce json
// @Param role path string true "Role"
// @Param request body server.accountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /roles/{role}/revoke [post]
func (s *Server) RevokeRole(c *fiber.Ctx) error {
	var req accountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.access.Revoke(c.UserContext(), caller(c), roleParam(c), account)
	return respondReceipt(c, receipt, err)
}

// SetRoleAdmin handles PUT /api/roles/:role/admin
// @Summary Delegate role administration
// @Description Let holders of admin_role grant and revoke the role. Super-admin only.
// @Tags roles
// @Accept json
// @Produce json
// @Param role path string true "Role"
// @Param request body server.roleAdminRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /roles/{role}/admin [put]
func (s *Server) SetRoleAdmin(c *fiber.Ctx) error {
	var req roleAdminRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.access.SetRoleAdmin(c.UserContext(), caller(c), roleParam(c), req.AdminRole)
	return respondReceipt(c, receipt, err)
}

// AuthorizeAssigner handles POST /api/assigners
// @Summary Authorize FAN assigner
// @Description Allow an account to grant and revoke FAN. Super-admin only.
// @Tags roles
// @Accept json
// @Produce json
// @Param request body server.accountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assigners [post]
func (s *Server) AuthorizeAssigner(c *fiber.Ctx) error {
	var req accountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.access.AuthorizeAssigner(c.UserContext(), caller(c), account)
	return respondReceipt(c, receipt, err)
}

// RevokeAssigner handles DELETE /api/assigners/:address
// @Summary Revoke FAN assigner
// @Description Revoke FAN assigner.
// @Tags roles
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /assigners/{address} [delete]
func (s *Server) RevokeAssigner(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	receipt, err := s.access.RevokeAssigner(c.UserContext(), caller(c), account)
	return respondReceipt(c, receipt, err)
}

// GetRoleMembers handles GET /api/roles/:role/members
// @Summary List role members
// @Description List role members.
// @Tags roles
// @Produce json
// @Param role path string true "Role"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.RoleAssignment]
// @Failure 400 {object} models.ErrorResponse
// @Router /roles/{role}/members [get]
func (s *Server) GetRoleMembers(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.access.RoleMembers(c.UserContext(), roleParam(c), p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetAccountRoles handles GET /api/accounts/:address/roles
// @Summary List account roles
// @Description List account roles.
// @Tags roles
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} object{account=string,roles=[]string,fan_assigner=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/{address}/roles [get]
func (s *Server) GetAccountRoles(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	roles, err := s.access.ListRoles(ctx, account)
	if err != nil {
		return respondError(c, err)
	}
	assigner, err := s.access.IsAssigner(ctx, account)
	if err != nil {
		return respondError(c, err)
	}
	if roles == nil {
		roles = []models.Role{}
	}
	return c.JSON(fiber.Map{"account": account, "roles": roles, "fan_assigner": assigner})
}

// MintValue handles POST /api/wallet/mint
// @Summary Mint value
// @Description Credit new native value to an account. Super-admin only.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body server.amountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /wallet/mint [post]
func (s *Server) MintValue(c *fiber.Ctx) error {
	var req amountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.wallets.Mint(c.UserContext(), caller(c), account, req.Amount)
	return respondReceipt(c, receipt, err)
}

// TransferValue handles POST /api/wallet/transfer
// @Summary Transfer value
// @Description Send value from the caller's wallet.
// @Tags wallet
// @Accept json
// @Produce json
// @Param request body server.amountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /wallet/transfer [post]
func (s *Server) TransferValue(c *fiber.Ctx) error {
	var req amountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	to, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.wallets.Transfer(c.UserContext(), caller(c), to, req.Amount)
	return respondReceipt(c, receipt, err)
}

// GetWalletBalance handles GET /api/accounts/:address/balance
// @Summary Get wallet balance
// @Description Get wallet balance.
// @Tags wallet
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} object{account=string,balance=int}
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/{address}/balance [get]
func (s *Server) GetWalletBalance(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	balance, err := s.wallets.Balance(c.UserContext(), account)
	return respondValue(c, fiber.StatusOK, fiber.Map{"account": account, "balance": balance}, err)
}

// GetHead handles GET /api/ledger/head
// @Summary Get ledger head
// @Description Last committed operation sequence number.
// @Tags events
// @Produce json
// @Success 200 {object} object{sequence=int}
// @Router /ledger/head [get]
func (s *Server) GetHead(c *fiber.Ctx) error {
	head, err := s.events.Head(c.UserContext())
	return respondValue(c, fiber.StatusOK, fiber.Map{"sequence": head}, err)
}

// GetEvents handles GET /api/events?entity=&entity_id=&actor=&after=
// @Summary List journal events
// @Description Committed events in commit order, optionally filtered.
// @Tags events
// @Produce json
// @Param entity query string false "Entity kind"
// @Param entity_id query string false "Entity id"
// @Param actor query string false "Caller address"
// @Param after query int false "Only events after this sequence"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Event]
// @Failure 400 {object} models.ErrorResponse
// @Router /events [get]
func (s *Server) GetEvents(c *fiber.Ctx) error {
	after := c.QueryInt("after", 0)
	if after < 0 {
		after = 0
	}
	filter := repository.EventFilter{
		Entity:   c.Query("entity"),
		EntityID: c.Query("entity_id"),
		AfterSeq: uint64(after),
	}
	if actor := c.Query("actor"); actor != "" {
		a, err := models.ParseAddress(actor)
		if err != nil {
			return respondError(c, err)
		}
		filter.Actor = a
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.events.Events(c.UserContext(), filter, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}
