package course

import (
	"errors"
	"strconv"

	"github.com/englishmaster/api/model"
	"github.com/englishmaster/api/services"
	"github.com/englishmaster/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// CourseHandler serves the public course catalog
type CourseHandler struct {
	catalog *services.CatalogService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(catalog *services.CatalogService) *CourseHandler {
	return &CourseHandler{catalog: catalog}
}

// ListResponse wraps a catalog page with its continuation cursor
type ListResponse struct {
	Courses    []model.Course `json:"courses"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// List returns catalog courses, filtered by level and search term.
// GET /api/v1/courses?level=Beginner&search=gramm&sort=popular&limit=20&cursor=42
func (h *CourseHandler) List(c *fiber.Ctx) error {
	level := c.Query("level")
	if level != "" && !model.ValidLevel(level) {
		return response.BadRequest(c, "Invalid level filter")
	}

	limit, _ := strconv.Atoi(c.Query("limit", "20"))

	q := services.CatalogQuery{
		Level:  level,
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
		Limit:  limit,
		Cursor: c.Query("cursor"),
	}

	courses, nextCursor, err := h.catalog.List(c.Context(), q)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCursor) {
			return response.BadRequest(c, "Invalid pagination cursor")
		}
		return response.InternalServerError(c, "Failed to fetch courses")
	}

	return response.Success(c, ListResponse{
		Courses:    courses,
		NextCursor: nextCursor,
	})
}

// Get returns a single course by id.
// GET /api/v1/courses/:id
func (h *CourseHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return response.BadRequest(c, "Invalid course ID")
	}

	course, err := h.catalog.Get(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrCourseNotFound) {
			return response.NotFound(c, "Course not found")
		}
		return response.InternalServerError(c, "Failed to fetch course")
	}

	return response.Success(c, course)
}

// Popular returns the most-enrolled courses for the landing page.
// GET /api/v1/courses/popular?limit=4
func (h *CourseHandler) Popular(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "4"))

	courses, err := h.catalog.Popular(c.Context(), limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch popular courses")
	}

	return response.Success(c, courses)
}
