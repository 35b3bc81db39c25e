package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// manual caching of posts not needed (at least for this use case):
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const postColumns = `
	p.id, p.title, p.description, p.content, p.cover_image, p.author_id,
	p.published, p.published_on, p.view_count, p.created_at, p.updated_at,
	u.full_name, u.email`

// listings skip the content column
const postListingColumns = `
	p.id, p.title, p.description, p.cover_image, p.author_id,
	p.published, p.published_on, p.view_count, p.created_at, p.updated_at,
	u.full_name, u.email`

var _ postsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// UpdateParams carries a partial update; nil fields are left untouched.
// PublishedOn can only ever be set, never cleared.
type UpdateParams struct {
	Title       *string
	Description *string
	Content     *string
	CoverImage  *string
	Published   *bool
	PublishedOn *time.Time
}

func (r *Repo) Add(ctx context.Context, post *Post) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.add")
	defer span.End()

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	_, err := r.db.Exec(
		ctx,
		`INSERT INTO post
			(id, title, description, content, cover_image, author_id,
			 published, published_on, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		post.ID, post.Title, post.Description, post.Content, post.CoverImage,
		post.AuthorID, post.Published, post.PublishedOn, post.ViewCount,
		post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return ErrAuthorNotFound
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.get")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postColumns+`
		FROM post p JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return onePost(rows, true)
}

// GetAndCountView fetches a post and bumps its view count in the same
// statement; the returned post carries the incremented count. Concurrent
// fetches never lose an increment since the addition happens in the store.
func (r *Repo) GetAndCountView(ctx context.Context, id uuid.UUID) (*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.getAndCountView")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`WITH viewed AS (
			UPDATE post SET view_count = view_count + 1
			WHERE id = $1
			RETURNING *
		)
		SELECT
			p.id, p.title, p.description, p.content, p.cover_image, p.author_id,
			p.published, p.published_on, p.view_count, p.created_at, p.updated_at,
			u.full_name, u.email
		FROM viewed p JOIN users u ON u.id = p.author_id`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return onePost(rows, true)
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, params UpdateParams) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.update")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	sets := []string{"updated_at = $1"}
	args := []any{time.Now()}

	addSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Title != nil {
		addSet("title", *params.Title)
	}
	if params.Description != nil {
		addSet("description", *params.Description)
	}
	if params.Content != nil {
		addSet("content", *params.Content)
	}
	if params.CoverImage != nil {
		addSet("cover_image", *params.CoverImage)
	}
	if params.Published != nil {
		addSet("published", *params.Published)
	}
	if params.PublishedOn != nil {
		addSet("published_on", *params.PublishedOn)
	}

	args = append(args, id)
	query := fmt.Sprintf(
		"UPDATE post SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.delete")
	span.SetAttributes(attribute.String("id", id.String()))
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM post WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repo) ListPublished(ctx context.Context, page, limit int) ([]*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.listPublished")
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("limit", limit))
	defer span.End()

	log.Tracef("listing published posts, page %d, limit %d", page, limit)

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postListingColumns+`
		FROM post p JOIN users u ON u.id = p.author_id
		WHERE p.published
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2posts(rows, false)
}

func (r *Repo) CountPublished(ctx context.Context) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.countPublished")
	defer span.End()

	var count int
	if err := r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM post WHERE published`).
		Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func (r *Repo) ListByAuthor(
	ctx context.Context,
	authorID int64,
	published bool,
	page, limit int,
) ([]*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.listByAuthor")
	span.SetAttributes(attribute.Int64("authorId", authorID))
	span.SetAttributes(attribute.Int("page", page))
	defer span.End()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+postListingColumns+`
		FROM post p JOIN users u ON u.id = p.author_id
		WHERE p.author_id = $1 AND p.published = $2
		ORDER BY p.created_at DESC
		LIMIT $3 OFFSET $4`,
		authorID, published, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2posts(rows, false)
}

func (r *Repo) CountByAuthor(ctx context.Context, authorID int64, published bool) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "postsRepo.countByAuthor")
	span.SetAttributes(attribute.Int64("authorId", authorID))
	defer span.End()

	var count int
	if err := r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM post WHERE author_id = $1 AND published = $2`, authorID, published).
		Scan(&count); err != nil {
		return -1, err
	}
	return count, nil
}

func onePost(rows pgx.Rows, withContent bool) (*Post, error) {
	posts, err := rows2posts(rows, withContent)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, ErrPostNotFound
	}
	return posts[0], nil
}

func rows2posts(rows pgx.Rows, withContent bool) ([]*Post, error) {
	var posts []*Post
	for rows.Next() {
		var post Post
		dest := []any{&post.ID, &post.Title, &post.Description}
		if withContent {
			dest = append(dest, &post.Content)
		}
		dest = append(dest,
			&post.CoverImage, &post.AuthorID,
			&post.Published, &post.PublishedOn, &post.ViewCount,
			&post.CreatedAt, &post.UpdatedAt,
			&post.Author.FullName, &post.Author.Email,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
