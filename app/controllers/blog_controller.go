package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/repository"
	"github.com/drishiq/drishiq/internal/pkg/metrics/counter"
)

// HandleBlogList returns published posts, newest first.
func HandleBlogList(c *fiber.Ctx) error {
	page, limit, offset := parsePagination(c)
	repo := repository.GetGlobalFactory().GetBlogRepository()
	posts, err := repo.GetPublished(offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	total, err := repo.CountPublished()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"data": posts,
		"meta": paginationMeta(page, limit, total),
	})
}

// HandleBlogDetail returns a single published post by slug and counts the view.
func HandleBlogDetail(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	repo := repository.GetGlobalFactory().GetBlogRepository()
	post, err := repo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "post not found")
		}
		return respondError(c, err)
	}
	if !post.Published {
		return jsonError(c, fiber.StatusNotFound, "not_found", "post not found")
	}

	// View counts are buffered in Redis and flushed by the scheduler.
	counter.AddBlogView(post.ID)

	return c.JSON(post)
}
