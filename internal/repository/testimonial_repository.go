package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/testimonial-service/internal/domain"
)

// TestimonialFilter narrows a listing.
type TestimonialFilter struct {
	OwnerID *string
}

// TestimonialRepository encapsulates testimonial persistence.
type TestimonialRepository interface {
	Create(ctx context.Context, testimonial *domain.Testimonial) error
	GetByID(ctx context.Context, id string) (*domain.Testimonial, error)
	UpdateContent(ctx context.Context, testimonial *domain.Testimonial) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter TestimonialFilter) ([]domain.Testimonial, error)
}

type testimonialRepository struct {
	db DBTX
}

// NewTestimonialRepository instantiates repository.
func NewTestimonialRepository(db DBTX) TestimonialRepository {
	return &testimonialRepository{db: db}
}

const testimonialSelect = `
        SELECT t.id, t.content, t.user_id, u.name, t.created_at, t.updated_at
        FROM testimonials t JOIN users u ON u.id = t.user_id`

func (r *testimonialRepository) Create(ctx context.Context, testimonial *domain.Testimonial) error {
	const query = `
        WITH inserted AS (
            INSERT INTO testimonials (content, user_id)
            VALUES ($1, $2)
            RETURNING id, user_id, created_at, updated_at
        )
        SELECT i.id, u.name, i.created_at, i.updated_at
        FROM inserted i JOIN users u ON u.id = i.user_id`

	err := r.db.QueryRow(ctx, query,
		testimonial.Content,
		testimonial.OwnerID,
	).Scan(&testimonial.ID, &testimonial.OwnerName, &testimonial.CreatedAt, &testimonial.UpdatedAt)
	err = translateError(err)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrOwnerNotFound
	}
	return err
}

func (r *testimonialRepository) GetByID(ctx context.Context, id string) (*domain.Testimonial, error) {
	const query = testimonialSelect + ` WHERE t.id=$1`
	return scanTestimonial(r.db.QueryRow(ctx, query, id))
}

// UpdateContent persists new content and refreshes UpdatedAt on the passed value.
func (r *testimonialRepository) UpdateContent(ctx context.Context, testimonial *domain.Testimonial) error {
	const query = `
        UPDATE testimonials SET content=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING updated_at`

	return translateError(r.db.QueryRow(ctx, query, testimonial.Content, testimonial.ID).Scan(&testimonial.UpdatedAt))
}

func (r *testimonialRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM testimonials WHERE id=$1`, id)
	if err != nil {
		return translateError(err)
	}
	return requireAffected(tag)
}

// List returns testimonials in insertion order; callers sort.
// An owner id that is not a uuid matches nothing.
func (r *testimonialRepository) List(ctx context.Context, filter TestimonialFilter) ([]domain.Testimonial, error) {
	items, err := r.list(ctx, filter)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return items, err
}

func (r *testimonialRepository) list(ctx context.Context, filter TestimonialFilter) ([]domain.Testimonial, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("t.user_id=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY t.created_at ASC, t.seq ASC`,
		testimonialSelect, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.Testimonial
	for rows.Next() {
		testimonial, err := scanTestimonial(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *testimonial)
	}
	return result, translateError(rows.Err())
}

func scanTestimonial(row pgx.Row) (*domain.Testimonial, error) {
	var testimonial domain.Testimonial
	if err := row.Scan(
		&testimonial.ID,
		&testimonial.Content,
		&testimonial.OwnerID,
		&testimonial.OwnerName,
		&testimonial.CreatedAt,
		&testimonial.UpdatedAt,
	); err != nil {
		return nil, translateError(err)
	}
	return &testimonial, nil
}
