package server

import (
	"tribehub/internal/models"
	"tribehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateCollectibleRequest is the body of POST /api/tribes/:id/collectibles.
type CreateCollectibleRequest struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Metadata       string `json:"metadata"`
	MaxSupply      int64  `json:"max_supply"`
	Price          int64  `json:"price"`
	PointsRequired int64  `json:"points_required"`
	PointTypeID    uint   `json:"point_type_id"`
}

type collectibleWhitelistRequest struct {
	Enabled *bool    `json:"enabled"`
	Add     []string `json:"add"`
	Remove  []string `json:"remove"`
}

type verifierRequest struct {
	Verifier string `json:"verifier"`
}

type redeemRequest struct {
	Points        int64  `json:"points"`
	CollectibleID uint   `json:"collectible_id"`
	Signature     string `json:"signature"`
}

type spendRequest struct {
	Organization string `json:"organization"`
	Recipient    string `json:"recipient"`
	Amount       int64  `json:"amount"`
	Reason       string `json:"reason"`
	Signature    string `json:"signature"`
}

type signerRequest struct {
	Signer string `json:"signer"`
}

// CreateCollectible handles POST /api/tribes/:id/collectibles
// @Summary Create collectible
// @Description Create a tribe collectible. Tribe admins only.
// @Tags collectibles
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.CreateCollectibleRequest true "Request body"
// @Success 201 {object} models.Collectible
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/collectibles [post]
func (s *Server) CreateCollectible(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CreateCollectibleRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	col, err := s.collectibles.CreateCollectible(c.UserContext(), caller(c), service.CreateCollectibleInput{
		TribeID:        tribeID,
		Name:           req.Name,
		Symbol:         req.Symbol,
		Metadata:       req.Metadata,
		MaxSupply:      req.MaxSupply,
		Price:          req.Price,
		PointsRequired: req.PointsRequired,
		PointTypeID:    req.PointTypeID,
	})
	return respondValue(c, fiber.StatusCreated, col, err)
}

// SetCollectibleWhitelist handles PUT /api/tribes/:id/collectibles/:collectibleId/whitelist
// @Summary Update collectible whitelist
// @Description Update collectible whitelist.
// @Tags collectibles
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param collectibleId path int true "Collectible ID"
// @Param request body server.collectibleWhitelistRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/collectibles/{collectibleId}/whitelist [put]
func (s *Server) SetCollectibleWhitelist(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	id, err := parseID(c, "collectibleId")
	if err != nil {
		return nil
	}
	var req collectibleWhitelistRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	add, err := parseAddresses(req.Add)
	if err != nil {
		return respondError(c, err)
	}
	remove, err := parseAddresses(req.Remove)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.collectibles.SetCollectibleWhitelist(c.UserContext(), caller(c), tribeID, id, service.CollectibleWhitelistInput{
		Enabled: req.Enabled,
		Add:     add,
		Remove:  remove,
	})
	return respondReceipt(c, receipt, err)
}

// ClaimCollectible handles POST /api/tribes/:id/collectibles/:collectibleId/claim
// @Summary Claim collectible
// @Description Claim one unit, paying the price and meeting the points requirement.
// @Tags collectibles
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param collectibleId path int true "Collectible ID"
// @Param request body server.paymentRequest false "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/collectibles/{collectibleId}/claim [post]
func (s *Server) ClaimCollectible(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	id, err := parseID(c, "collectibleId")
	if err != nil {
		return nil
	}
	var req paymentRequest
	if len(c.Body()) > 0 {
		if err := bindBody(c, &req); err != nil {
			return nil
		}
	}
	receipt, err := s.collectibles.ClaimCollectible(c.UserContext(), caller(c), tribeID, id, req.Payment)
	return respondReceipt(c, receipt, err)
}

// GetCollectible handles GET /api/collectibles/:id
// @Summary Get collectible
// @Description Get collectible.
// @Tags collectibles
// @Produce json
// @Param id path int true "Collectible ID"
// @Success 200 {object} models.Collectible
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /collectibles/{id} [get]
func (s *Server) GetCollectible(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	col, err := s.collectibles.GetCollectible(c.UserContext(), id)
	return respondValue(c, fiber.StatusOK, col, err)
}

// GetCollectibles handles GET /api/tribes/:id/collectibles
// @Summary List tribe collectibles
// @Description List tribe collectibles.
// @Tags collectibles
// @Produce json
// @Param id path int true "Tribe ID"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Collectible]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/collectibles [get]
func (s *Server) GetCollectibles(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.collectibles.Collectibles(c.UserContext(), tribeID, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetHolding handles GET /api/collectibles/:id/holders/:address
// @Summary Get collectible holding
// @Description Get collectible holding.
// @Tags collectibles
// @Produce json
// @Param id path int true "Collectible ID"
// @Param address path string true "Account address"
// @Success 200 {object} object{collectible_id=int,account=string,balance=int,whitelisted=bool}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /collectibles/{id}/holders/{address} [get]
func (s *Server) GetHolding(c *fiber.Ctx) error {
	return withMember(c, func(id uint, account models.Address) error {
		ctx := c.UserContext()
		balance, err := s.collectibles.HoldingOf(ctx, account, id)
		if err != nil {
			return respondError(c, err)
		}
		whitelisted, err := s.collectibles.IsWhitelisted(ctx, id, account)
		return respondValue(c, fiber.StatusOK, fiber.Map{
			"collectible_id": id,
			"account":        account,
			"balance":        balance,
			"whitelisted":    whitelisted,
		}, err)
	})
}

// GetHoldings handles GET /api/accounts/:address/collectibles
// @Summary List account holdings
// @Description List account holdings.
// @Tags collectibles
// @Produce json
// @Param address path string true "Account address"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.CollectibleHolding]
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/{address}/collectibles [get]
func (s *Server) GetHoldings(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.collectibles.HoldingsOf(c.UserContext(), account, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// SetVerifier handles PUT /api/redemption/verifier
// @Summary Set redemption verifier
// @Description Set the global signer that authorizes point redemptions. Super-admin only.
// @Tags redemption
// @Accept json
// @Produce json
// @Param request body server.verifierRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /redemption/verifier [put]
func (s *Server) SetVerifier(c *fiber.Ctx) error {
	var req verifierRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	verifier, err := models.ParseAddress(req.Verifier)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.redemption.SetVerifier(c.UserContext(), caller(c), verifier)
	return respondReceipt(c, receipt, err)
}

// GetVerifier handles GET /api/redemption/verifier
// @Summary Get redemption verifier
// @Description Get redemption verifier.
// @Tags redemption
// @Produce json
// @Success 200 {object} object{verifier=string}
// @Router /redemption/verifier [get]
func (s *Server) GetVerifier(c *fiber.Ctx) error {
	verifier, err := s.redemption.Verifier(c.UserContext())
	return respondValue(c, fiber.StatusOK, fiber.Map{"verifier": verifier}, err)
}

// RedeemPoints handles POST /api/redemption/redeem
// @Summary Redeem points
// @Description Redeem points with a verifier signature. Each signature is accepted once.
// @Tags redemption
// @Accept json
// @Produce json
// @Param request body server.redeemRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /redemption/redeem [post]
func (s *Server) RedeemPoints(c *fiber.Ctx) error {
	var req redeemRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.redemption.RedeemPoints(c.UserContext(), caller(c), req.Points, req.CollectibleID, req.Signature)
	return respondReceipt(c, receipt, err)
}

// GetSignatureUsed handles GET /api/redemption/signatures/:signature
// @Summary Check signature use
// @Description Check signature use.
// @Tags redemption
// @Produce json
// @Param signature path string true "Hex signature"
// @Success 200 {object} object{used=bool}
// @Failure 400 {object} models.ErrorResponse
// @Router /redemption/signatures/{signature} [get]
func (s *Server) GetSignatureUsed(c *fiber.Ctx) error {
	used, err := s.redemption.IsSignatureUsed(c.UserContext(), c.Params("signature"))
	return respondValue(c, fiber.StatusOK, fiber.Map{"used": used}, err)
}

// DepositDispenser handles POST /api/dispenser/deposit
// @Summary Deposit into dispenser
// @Description Move value from the caller's wallet into their dispenser balance.
// @Tags dispenser
// @Accept json
// @Produce json
// @Param request body server.amountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dispenser/deposit [post]
func (s *Server) DepositDispenser(c *fiber.Ctx) error {
	var req amountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.dispenser.Deposit(c.UserContext(), caller(c), req.Amount)
	return respondReceipt(c, receipt, err)
}

// WithdrawDispenser handles POST /api/dispenser/withdraw
// @Summary Withdraw from dispenser
// @Description Withdraw from dispenser.
// @Tags dispenser
// @Accept json
// @Produce json
// @Param request body server.amountRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dispenser/withdraw [post]
func (s *Server) WithdrawDispenser(c *fiber.Ctx) error {
	var req amountRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.dispenser.Withdraw(c.UserContext(), caller(c), req.Amount)
	return respondReceipt(c, receipt, err)
}

// AddDispenserSigner handles POST /api/dispenser/signers
// @Summary Add dispenser signer
// @Description Add dispenser signer.
// @Tags dispenser
// @Accept json
// @Produce json
// @Param request body server.signerRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dispenser/signers [post]
func (s *Server) AddDispenserSigner(c *fiber.Ctx) error {
	var req signerRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	signer, err := models.ParseAddress(req.Signer)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.dispenser.AddSigner(c.UserContext(), caller(c), signer)
	return respondReceipt(c, receipt, err)
}

// RemoveDispenserSigner handles DELETE /api/dispenser/signers/:address
// @Summary Remove dispenser signer
// @Description Remove dispenser signer.
// @Tags dispenser
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dispenser/signers/{address} [delete]
func (s *Server) RemoveDispenserSigner(c *fiber.Ctx) error {
	signer, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	receipt, err := s.dispenser.RemoveSigner(c.UserContext(), caller(c), signer)
	return respondReceipt(c, receipt, err)
}

// SpendDispenser handles POST /api/dispenser/spend
// @Summary Spend from dispenser
// @Description Pay a recipient from an organization balance under a signer signature.
// @Tags dispenser
// @Accept json
// @Produce json
// @Param request body server.spendRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /dispenser/spend [post]
func (s *Server) SpendDispenser(c *fiber.Ctx) error {
	var req spendRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	org, err := models.ParseAddress(req.Organization)
	if err != nil {
		return respondError(c, err)
	}
	recipient, err := models.ParseAddress(req.Recipient)
	if err != nil {
		return respondError(c, err)
	}
	receipt, err := s.dispenser.SpendWithSignature(c.UserContext(), caller(c), service.SpendInput{
		Organization: org,
		Recipient:    recipient,
		Amount:       req.Amount,
		Reason:       req.Reason,
		Signature:    req.Signature,
	})
	return respondReceipt(c, receipt, err)
}

// GetDispenser handles GET /api/dispensers/:address
// @Summary Get dispenser
// @Description Get dispenser.
// @Tags dispenser
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} object{organization=string,balance=int,signers=[]string}
// @Failure 400 {object} models.ErrorResponse
// @Router /dispensers/{address} [get]
func (s *Server) GetDispenser(c *fiber.Ctx) error {
	org, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	balance, err := s.dispenser.Balance(ctx, org)
	if err != nil {
		return respondError(c, err)
	}
	signers, err := s.dispenser.Signers(ctx, org)
	if signers == nil {
		signers = []models.Address{}
	}
	return respondValue(c, fiber.StatusOK, fiber.Map{"organization": org, "balance": balance, "signers": signers}, err)
}
