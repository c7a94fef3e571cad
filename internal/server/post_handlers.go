package server

import (
	"tribehub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePostRequest is the body of POST /api/tribes/:id/posts. A nil Access publishes
// the post ungated.
type CreatePostRequest struct {
	Metadata string              `json:"metadata"`
	Access   *service.AccessRule `json:"access"`
}

type metadataRequest struct {
	Metadata string `json:"metadata"`
}

// CreatePost handles POST /api/tribes/:id/posts
// @Summary Create post
// @Description Publish a post to a tribe. Gated posts carry an access rule.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Tribe ID"
// @Param request body server.CreatePostRequest true "Request body"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /tribes/{id}/posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CreatePostRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	post, err := s.content.CreatePost(c.UserContext(), caller(c), service.CreatePostInput{
		TribeID:  tribeID,
		Metadata: req.Metadata,
		Access:   req.Access,
	})
	return respondValue(c, fiber.StatusCreated, post, err)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Update post metadata
// @Description Update post metadata.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body server.metadataRequest true "Request body"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req metadataRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	receipt, err := s.content.UpdatePostMetadata(c.UserContext(), caller(c), id, req.Metadata)
	return respondReceipt(c, receipt, err)
}

// GetPost handles GET /api/posts/:id. Gated metadata is redacted unless the bearer may see it.
// @Summary Get post
// @Description Gated metadata is redacted unless the bearer may see it.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.content.GetPost(c.UserContext(), id, s.viewer(c))
	return respondValue(c, fiber.StatusOK, post, err)
}

// GetTribePosts handles GET /api/tribes/:id/posts
// @Summary List tribe posts
// @Description List tribe posts.
// @Tags posts
// @Produce json
// @Param id path int true "Tribe ID"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tribes/{id}/posts [get]
func (s *Server) GetTribePosts(c *fiber.Ctx) error {
	tribeID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.content.TribePosts(c.UserContext(), tribeID, p.Offset, p.Limit, s.viewer(c))
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetUserPosts handles GET /api/accounts/:address/posts
// @Summary List account posts
// @Description List account posts.
// @Tags posts
// @Produce json
// @Param address path string true "Account address"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Router /accounts/{address}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	account, err := parseAddressParam(c, "address")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.content.UserPosts(c.UserContext(), account, p.Offset, p.Limit, s.viewer(c))
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetMyFeed handles GET /api/me/feed
// @Summary Get feed
// @Description Posts from the caller's tribes and followed tribes, newest first.
// @Tags posts
// @Produce json
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Post]
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /me/feed [get]
func (s *Server) GetMyFeed(c *fiber.Ctx) error {
	p := parsePagination(c, defaultPageLimit)
	page, err := s.content.FeedForUser(c.UserContext(), caller(c), p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Description List comments.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Param offset query int false "Items to skip"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} service.Page[models.Comment]
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, defaultPageLimit)
	page, err := s.content.Comments(c.UserContext(), id, p.Offset, p.Limit)
	return respondValue(c, fiber.StatusOK, page, err)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like post
// @Description Like a post. Liking twice is a no-op.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.content.Like(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// SharePost handles POST /api/posts/:id/share
// @Summary Share post
// @Description Share post.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/share [post]
func (s *Server) SharePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.content.Share(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// SavePost handles POST /api/posts/:id/save
// @Summary Save post
// @Description Save post.
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} server.ReceiptResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/save [post]
func (s *Server) SavePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	receipt, err := s.content.Save(c.UserContext(), caller(c), id)
	return respondReceipt(c, receipt, err)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on post
// @Description Comment on post.
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body server.metadataRequest true "Request body"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req metadataRequest
	if err := bindBody(c, &req); err != nil {
		return nil
	}
	comment, err := s.content.Comment(c.UserContext(), caller(c), id, req.Metadata)
	return respondValue(c, fiber.StatusCreated, comment, err)
}
