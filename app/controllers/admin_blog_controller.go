package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/usercontext"
)

type blogPostRequest struct {
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Content   string `json:"content"`
	Excerpt   string `json:"excerpt"`
	Published bool   `json:"published"`
}

// HandleAdminBlogList lists all posts including drafts.
func HandleAdminBlogList(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	repo := repository.GetGlobalFactory().GetBlogRepository()
	posts, err := repo.GetAll(offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.Count()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": posts,
		"meta": paginationMeta(page, limit, total),
	})
}

// HandleAdminBlogCreate creates a post. A colliding slug gets a timestamp
// suffix instead of rejecting the request.
func HandleAdminBlogCreate(c *fiber.Ctx) error {
	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	slug := slugify(req.Slug)
	if slug == "" {
		slug = slugify(req.Title)
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	exists, err := repo.SlugExists(slug)
	if err != nil {
		return respondError(c, err)
	}
	if exists {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().Unix())
	}

	userCtx := usercontext.GetUserContext(c)
	post := &models.BlogPost{
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Slug:      slug,
		Excerpt:   strings.TrimSpace(req.Excerpt),
		Published: req.Published,
		UserID:    userCtx.UserID,
	}
	if err := post.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := repo.Create(post); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// HandleAdminBlogUpdate updates an existing post.
func HandleAdminBlogUpdate(c *fiber.Ctx) error {
	post, err := loadBlogPost(c)
	if err != nil {
		return respondError(c, err)
	}
	var req blogPostRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "invalid request body")
	}

	repo := repository.GetGlobalFactory().GetBlogRepository()
	slug := slugify(req.Slug)
	if slug == "" {
		slug = post.Slug
	}
	if slug != post.Slug {
		exists, err := repo.SlugExistsExceptID(slug, post.ID)
		if err != nil {
			return respondError(c, err)
		}
		if exists {
			slug = fmt.Sprintf("%s-%d", slug, time.Now().Unix())
		}
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = req.Content
	post.Slug = slug
	post.Excerpt = strings.TrimSpace(req.Excerpt)
	post.Published = req.Published
	if err := post.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "validation_failed", err.Error())
	}
	if err := repo.Update(post); err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// HandleAdminBlogDelete soft deletes a post.
func HandleAdminBlogDelete(c *fiber.Ctx) error {
	post, err := loadBlogPost(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := repository.GetGlobalFactory().GetBlogRepository().Delete(post.ID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func loadBlogPost(c *fiber.Ctx) (*models.BlogPost, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	post, err := repository.GetGlobalFactory().GetBlogRepository().GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return post, nil
}

// slugify lowercases the input and reduces it to hyphen separated
// alphanumeric runs.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastHyphen := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
