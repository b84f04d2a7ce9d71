package services

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/englishmaster/api/model"
	"gorm.io/gorm"
)

// ErrInvalidCursor reports a continuation cursor the listing cannot resume
// from, either malformed or pointing at a course that no longer exists.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// CatalogQuery carries the catalog listing filters.
type CatalogQuery struct {
	Level  string // exact match against the course level
	Search string // case-insensitive substring over name/description
	Sort   string // "popular" orders by enrollment count desc
	Limit  int
	Cursor string // continuation cursor from a previous page
}

// Sort modes
const (
	SortNewest  = "newest"
	SortPopular = "popular"
)

// CatalogService reads the course catalog. Level filtering and ordering run
// in SQL; free-text search filters the fetched set in memory, so search
// results are not cursor-paginated.
type CatalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// Get returns a single course by id.
func (s *CatalogService) Get(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return &course, nil
}

// List returns catalog courses matching the query plus a continuation cursor
// for the next page ("" when exhausted). No match yields an empty slice, not
// an error.
func (s *CatalogService) List(ctx context.Context, q CatalogQuery) ([]model.Course, string, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}

	if q.Cursor != "" {
		if _, err := strconv.ParseUint(q.Cursor, 10, 64); err != nil {
			return nil, "", ErrInvalidCursor
		}
	}

	query := s.db.WithContext(ctx).Model(&model.Course{})

	if q.Level != "" {
		query = query.Where("level = ?", q.Level)
	}

	// Searching fetches every level match and filters in memory, so the
	// cursor only applies to browse listings.
	if q.Search != "" {
		var courses []model.Course
		if err := query.Order(s.orderClause(q.Sort)).Find(&courses).Error; err != nil {
			return nil, "", err
		}
		matched := FilterCoursesByTerm(courses, q.Search)
		if len(matched) > q.Limit {
			matched = matched[:q.Limit]
		}
		return matched, "", nil
	}

	if q.Cursor != "" {
		after, err := s.cursorPredicate(ctx, q.Sort, q.Cursor)
		if err != nil {
			return nil, "", ErrInvalidCursor
		}
		query = query.Where(after.clause, after.args...)
	}

	var courses []model.Course
	if err := query.Order(s.orderClause(q.Sort)).Limit(q.Limit).Find(&courses).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(courses) == q.Limit {
		nextCursor = strconv.FormatUint(uint64(courses[len(courses)-1].ID), 10)
	}

	return courses, nextCursor, nil
}

// Popular returns the most-enrolled courses.
func (s *CatalogService) Popular(ctx context.Context, limit int) ([]model.Course, error) {
	if limit <= 0 {
		limit = 4
	}

	var courses []model.Course
	err := s.db.WithContext(ctx).
		Order("enrollment_count DESC, id ASC").
		Limit(limit).
		Find(&courses).
		Error
	return courses, err
}

func (s *CatalogService) orderClause(sort string) string {
	if sort == SortPopular {
		return "enrollment_count DESC, id ASC"
	}
	return "created_at DESC, id DESC"
}

type predicate struct {
	clause string
	args   []interface{}
}

// cursorPredicate builds the keyset condition for records after the
// cursor's row. The cursor is the last-seen course id; its sort key is looked
// up so pagination stays stable under inserts.
func (s *CatalogService) cursorPredicate(ctx context.Context, sort, cursor string) (*predicate, error) {
	id, err := strconv.ParseUint(cursor, 10, 64)
	if err != nil {
		return nil, err
	}

	var last model.Course
	if err := s.db.WithContext(ctx).First(&last, uint(id)).Error; err != nil {
		return nil, err
	}

	if sort == SortPopular {
		return &predicate{
			clause: "(enrollment_count < ?) OR (enrollment_count = ? AND id > ?)",
			args:   []interface{}{last.EnrollmentCount, last.EnrollmentCount, last.ID},
		}, nil
	}

	return &predicate{
		clause: "(created_at < ?) OR (created_at = ? AND id < ?)",
		args:   []interface{}{last.CreatedAt, last.CreatedAt, last.ID},
	}, nil
}

// FilterCoursesByTerm returns the courses whose name or description contains
// the term, case-insensitively. An empty term matches everything.
func FilterCoursesByTerm(courses []model.Course, term string) []model.Course {
	if term == "" {
		return courses
	}

	needle := strings.ToLower(term)
	matched := make([]model.Course, 0, len(courses))
	for _, c := range courses {
		if strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Description), needle) {
			matched = append(matched, c)
		}
	}
	return matched
}
