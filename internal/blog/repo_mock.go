package blog

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/inkwell-app/inkwell/internal/users"

	"github.com/google/uuid"
)

var _ postsRepo = (*repoMock)(nil)

type repoMock struct {
	Posts   map[uuid.UUID]*Post
	Authors map[int64]users.Identity
	mutex   sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Posts:   make(map[uuid.UUID]*Post),
		Authors: make(map[int64]users.Identity),
	}
}

func (r *repoMock) Add(_ context.Context, post *Post) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Authors[post.AuthorID]; !ok {
		return ErrAuthorNotFound
	}

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = post.CreatedAt

	r.Posts[post.ID] = post
	return nil
}

func (r *repoMock) Get(_ context.Context, id uuid.UUID) (*Post, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.getResolved(id)
}

func (r *repoMock) GetAndCountView(_ context.Context, id uuid.UUID) (*Post, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	post, ok := r.Posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	post.ViewCount++
	return r.getResolved(id)
}

func (r *repoMock) Update(_ context.Context, id uuid.UUID, params UpdateParams) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	post, ok := r.Posts[id]
	if !ok {
		return ErrPostNotFound
	}

	if params.Title != nil {
		post.Title = *params.Title
	}
	if params.Description != nil {
		post.Description = *params.Description
	}
	if params.Content != nil {
		post.Content = *params.Content
	}
	if params.CoverImage != nil {
		post.CoverImage = *params.CoverImage
	}
	if params.Published != nil {
		post.Published = *params.Published
	}
	if params.PublishedOn != nil {
		post.PublishedOn = params.PublishedOn
	}
	post.UpdatedAt = time.Now()
	return nil
}

func (r *repoMock) Delete(_ context.Context, id uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Posts[id]; !ok {
		return ErrPostNotFound
	}
	delete(r.Posts, id)
	return nil
}

func (r *repoMock) ListPublished(_ context.Context, page, limit int) ([]*Post, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.listPage(func(post *Post) bool {
		return post.Published
	}, page, limit), nil
}

func (r *repoMock) CountPublished(_ context.Context) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := 0
	for _, post := range r.Posts {
		if post.Published {
			count++
		}
	}
	return count, nil
}

func (r *repoMock) ListByAuthor(
	_ context.Context,
	authorID int64,
	published bool,
	page, limit int,
) ([]*Post, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.listPage(func(post *Post) bool {
		return post.AuthorID == authorID && post.Published == published
	}, page, limit), nil
}

func (r *repoMock) CountByAuthor(_ context.Context, authorID int64, published bool) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	count := 0
	for _, post := range r.Posts {
		if post.AuthorID == authorID && post.Published == published {
			count++
		}
	}
	return count, nil
}

func (r *repoMock) getResolved(id uuid.UUID) (*Post, error) {
	post, ok := r.Posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	resolved := *post
	resolved.Author = r.Authors[post.AuthorID]
	return &resolved, nil
}

func (r *repoMock) listPage(match func(*Post) bool, page, limit int) []*Post {
	var matched []*Post
	for _, post := range r.Posts {
		if match(post) {
			listing := *post
			listing.Content = ""
			listing.Author = r.Authors[post.AuthorID]
			matched = append(matched, &listing)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	offset := (page - 1) * limit
	if offset >= len(matched) {
		return nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end]
}
