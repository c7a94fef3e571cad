package server

import (
	"tribehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

type pointTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type actionRequest struct {
	ActionID    string `json:"action_id"`
	PointTypeID uint   `json:"point_type_id"`
}

type awardRequest struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	ActionID string `json:"action_id"`
}

type spendPointsRequest struct {
	Account     string `json:"account"`
	PointTypeID uint   `json:"point_type_id"`
	Amount      int64  `json:"amount"`
	Reason      string `json:"reason"`
}

type tokenRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type rateRequest struct {
	Rate int64 `json:"rate"`
}

type paymentRequest struct {
	Payment int64 `json:"payment"`
}

// RegisterPointType handles POST /api/tribes/:id/point-types
// @Summary Register point type
// @Description Register point type.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.pointTypeRequest true "Request body"
// @Success 201 {object} models.PointType
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/point-types [post]
func (s *Server) RegisterPointType(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req pointTypeRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	pt, err := s.economy.RegisterPointType(c.UserContext(), caller(c), tribeID, req.Name, req.Description)
	return respondValue(c, fiber.StatusCreated, pt, err)
}

// RegisterAction handles POST /api/tribes/:id/actions
// @Summary Register action
// @Description Register action.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.actionRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/actions [post]
func (s *Server) RegisterAction(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req actionRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.economy.RegisterAction(c.UserContext(), caller(c), tribeID, req.ActionID, req.PointTypeID)
	return respondReceipt(c, receipt, err)
}

// GrantIssuer handles POST /api/tribes/:id/issuers
// @Summary Grant point issuer
// @Description Grant point issuer.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.accountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/issuers [post]
func (s *Server) GrantIssuer(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req accountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.economy.GrantIssuer(c.UserContext(), caller(c), tribeID, account)
	return respondReceipt(c, receipt, err)
}

// RevokeIssuer handles DELETE /api/tribes/:id/issuers/:address
// @Summary Revoke point issuer
// @Description Revoke point issuer.
// @Tags economy
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/issuers/{address} [delete]
func (s *Server) RevokeIssuer(c *fiber.Ctx) error {
	return withMember(c, func(tribeID uint, account models.Address) error {
		receipt, err := s.economy.RevokeIssuer(c.UserContext(), caller(c), tribeID, account)
		return respondReceipt(c, receipt, err)
	})
}

// AwardPoints handles POST /api/tribes/:id/points/award
// @Summary Award points
// @Description Award points for a registered action. Tribe admins and issuers only.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.awardRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/points/award [post]
func (s *Server) AwardPoints(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req awardRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account, err := models.ParseAddress(req.Account)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.economy.AwardPoints(c.UserContext(), caller(c), tribeID, account, req.Amount, req.ActionID)
	return respondReceipt(c, receipt, err)
}

// SpendPoints handles POST /api/tribes/:id/points/spend
// @Summary Spend points
// @Description Spend points.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.spendPointsRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/points/spend [post]
func (s *Server) SpendPoints(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req spendPointsRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	account := caller(c)
	if req.Account != "" {
		if account, err = models.ParseAddress(req.Account); err != nil {
			return respondError(c, err)
		}
	}
	receipt, err := s.economy.SpendPoints(c.UserContext(), caller(c), tribeID, account, req.PointTypeID, req.Amount, req.Reason)
	return respondReceipt(c, receipt, err)
}

// GetPointTypes handles GET /api/tribes/:id/point-types
// @Summary List point types
// @Description List point types.
// @Tags economy
// @Produce json
// @Param id path int true "Tribe ID"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.PointType]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/point-types [get]
func (s *Server) GetPointTypes(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.economy.PointTypes(c.UserContext(), tribeID, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetPointBalances handles GET /api/tribes/:id/points/:address
// @Summary Get point balances
// @Description Get point balances.
// @Tags economy
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} object{tribe_id=int,account=string,balances=[]models.PointBalance}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/points/{address} [get]
func (s *Server) GetPointBalances(c *fiber.Ctx) error {
	return withMember(c, func(tribeID uint, account models.Address) error {
		balances, err := s.economy.PointBalances(c.UserContext(), tribeID, account)
		if balances == nil {
			balances = []models.PointBalance{}
		}
		return respondValue(c, fiber.StatusOK, fiber.Map{"tribe_id": tribeID, "account": account, "balances": balances}, err)
	})
}

// CreateTribeToken handles POST /api/tribes/:id/token
// @Summary Create tribe token
// @Description Create tribe token.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.tokenRequest true "Request body"
// @Success 201 {object} models.TribeToken
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/token [post]
func (s *Server) CreateTribeToken(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req tokenRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	token, err := s.economy.CreateTribeToken(c.UserContext(), caller(c), tribeID, req.Name, req.Symbol)
	return respondValue(c, fiber.StatusCreated, token, err)
}

// SetExchangeRate handles PUT /api/tribes/:id/token/rate
// @Summary Set token exchange rate
// @Description Set token exchange rate.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.rateRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/token/rate [put]
func (s *Server) SetExchangeRate(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req rateRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.economy.SetExchangeRate(c.UserContext(), caller(c), tribeID, req.Rate)
	return respondReceipt(c, receipt, err)
}

// BuyTribeTokens handles POST /api/tribes/:id/token/buy
// @Summary Buy tribe tokens
// @Description Buy tribe tokens with native value at the exchange rate.
// @Tags economy
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.paymentRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/token/buy [post]
func (s *Server) BuyTribeTokens(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req paymentRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.economy.BuyTribeTokens(c.UserContext(), caller(c), tribeID, req.Payment)
	return respondReceipt(c, receipt, err)
}

// GetTribeToken handles GET /api/tribes/:id/token
// @Summary Get tribe token
// @Description Get tribe token.
// @Tags economy
// @Produce json
// @Param id path int true "Tribe ID"
// @Success 200 {object} models.TribeToken
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/token [get]
func (s *Server) GetTribeToken(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	token, err := s.economy.TribeToken(c.UserContext(), tribeID)
	return respondValue(c, fiber.StatusOK, token, err)
}

// GetTokenBalance handles GET /api/tribes/:id/token/:address
// @Summary Get tribe token balance
// @Description Get tribe token balance.
// @Tags economy
// @Produce json
// @Param id path int true "Tribe ID"
// @Param address path string true "Account address"
// @Success 200 {object} object{tribe_id=int,account=string,balance=int}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/token/{address} [get]
func (s *Server) GetTokenBalance(c *fiber.Ctx) error {
	return withMember(c, func(tribeID uint, account models.Address) error {
		balance, err := s.economy.TokenBalance(c.UserContext(), tribeID, account)
		return respondValue(c, fiber.StatusOK, fiber.Map{"tribe_id": tribeID, "account": account, "balance": balance}, err)
	})
}
