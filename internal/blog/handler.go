package blog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/inkwell-app/inkwell/internal/auth"
	"github.com/inkwell-app/inkwell/internal/telemetry/metrics"
	"github.com/inkwell-app/inkwell/internal/telemetry/tracing"
	"github.com/inkwell-app/inkwell/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type createPostRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	CoverImageURL string `json:"coverImageUrl"`
	// pointer so that an absent field can be told apart from false
	Published *bool `json:"published"`
}

type updatePostRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Content       string `json:"content"`
	CoverImageURL string `json:"coverImageUrl"`
	Published     *bool  `json:"published"`
}

type listPostsRequest struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type myPostsRequest struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	Published *bool `json:"published"`
}

type postsRepo interface {
	Add(ctx context.Context, post *Post) error
	Get(ctx context.Context, id uuid.UUID) (*Post, error)
	GetAndCountView(ctx context.Context, id uuid.UUID) (*Post, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListPublished(ctx context.Context, page, limit int) ([]*Post, error)
	CountPublished(ctx context.Context) (int, error)
	ListByAuthor(ctx context.Context, authorID int64, published bool, page, limit int) ([]*Post, error)
	CountByAuthor(ctx context.Context, authorID int64, published bool) (int, error)
}

type Handler struct {
	repo  postsRepo
	instr *metrics.Manager
}

func NewHandler(repo postsRepo, instr *metrics.Manager) *Handler {
	return &Handler{
		repo:  repo,
		instr: instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	blogsRouter := router.PathPrefix("/blogs").Subrouter()
	blogsRouter.HandleFunc("", handler.handleCreate).Methods("POST", "OPTIONS").Name("create-post")
	blogsRouter.HandleFunc("/all", handler.handleListPublished).Methods("POST", "OPTIONS").Name("all-posts")
	blogsRouter.HandleFunc("/my-blogs", handler.handleListMine).Methods("POST", "OPTIONS").Name("my-posts")
	blogsRouter.HandleFunc("/{id}", handler.handleGet).Methods("GET").Name("get-post")
	blogsRouter.HandleFunc("/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("update-post")
	blogsRouter.HandleFunc("/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("delete-post")
	blogsRouter.HandleFunc("/{id}/toggle-publish", handler.handleTogglePublish).Methods("PATCH", "OPTIONS").Name("toggle-publish")
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.create")
	defer span.End()

	authorID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
		return
	}

	var createReq createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		log.Errorf("create post, unmarshal json params: %s", err)
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}

	if createReq.Title == "" || createReq.Description == "" ||
		createReq.Content == "" || createReq.CoverImageURL == "" {
		pkg.WriteError(w,
			"Title, description, content and cover Image are required",
			http.StatusBadRequest, "Missing required fields",
		)
		return
	}
	if !ValidateTitle(createReq.Title) {
		pkg.WriteError(w, "Title must be between 3 and 200 characters", http.StatusBadRequest, "Invalid title")
		return
	}
	if !ValidateDescription(createReq.Description) {
		pkg.WriteError(w, "Description must be between 10 and 100 characters", http.StatusBadRequest, "Invalid description")
		return
	}
	if !ValidateContent(createReq.Content) {
		pkg.WriteError(w, "Content must be at least 50 characters long", http.StatusBadRequest, "Invalid content")
		return
	}
	if createReq.Published == nil {
		pkg.WriteError(w, "Published must be a boolean value", http.StatusBadRequest, "Invalid published value")
		return
	}

	post := &Post{
		Title:       strings.TrimSpace(createReq.Title),
		Description: strings.TrimSpace(createReq.Description),
		Content:     strings.TrimSpace(createReq.Content),
		CoverImage:  createReq.CoverImageURL,
		AuthorID:    authorID,
		Published:   *createReq.Published,
	}
	if post.Published {
		now := time.Now()
		post.PublishedOn = &now
	}

	if err := handler.repo.Add(ctx, post); err != nil {
		if errors.Is(err, ErrAuthorNotFound) {
			// account removed between the auth check and the insert
			pkg.WriteError(w, "Invalid token. User not found.", http.StatusUnauthorized, "Authentication failed")
			return
		}
		log.Errorf("create post for user %d: %s", authorID, err)
		pkg.WriteError(w, "Failed to create blog", http.StatusInternalServerError, "Internal server error")
		return
	}

	handler.instr.CounterPostsCreated.Inc()
	log.Tracef("new post %s [%s] by user %d", post.ID, post.Title, authorID)

	pkg.WriteSuccess(w, "Blog created successfully", http.StatusCreated, nil)
}

func (handler *Handler) handleListPublished(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.listPublished")
	defer span.End()

	listReq, err := decodeListRequest(r)
	if err != nil {
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}

	posts, err := handler.repo.ListPublished(ctx, listReq.Page, listReq.Limit)
	if err != nil {
		log.Errorf("list published posts: %s", err)
		pkg.WriteError(w, "Failed to retrieve blogs", http.StatusInternalServerError, "Internal server error")
		return
	}

	total, err := handler.repo.CountPublished(ctx)
	if err != nil {
		log.Errorf("count published posts: %s", err)
		pkg.WriteError(w, "Failed to retrieve blogs", http.StatusInternalServerError, "Internal server error")
		return
	}

	pkg.WriteSuccess(w, "Blogs retrieved successfully", http.StatusOK, map[string]any{
		"blogs":      emptyIfNil(posts),
		"pagination": NewPagination(listReq.Page, listReq.Limit, total),
	})
}

func (handler *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.listMine")
	defer span.End()

	authorID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
		return
	}

	var myReq myPostsRequest
	if err := json.NewDecoder(r.Body).Decode(&myReq); err != nil && !errors.Is(err, io.EOF) {
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}
	if myReq.Page < 1 {
		myReq.Page = defaultPage
	}
	if myReq.Limit < 1 {
		myReq.Limit = defaultLimit
	}
	published := true
	if myReq.Published != nil {
		published = *myReq.Published
	}

	posts, err := handler.repo.ListByAuthor(ctx, authorID, published, myReq.Page, myReq.Limit)
	if err != nil {
		log.Errorf("list posts of user %d: %s", authorID, err)
		pkg.WriteError(w, "Failed to retrieve your blogs", http.StatusInternalServerError, "Internal server error")
		return
	}

	total, err := handler.repo.CountByAuthor(ctx, authorID, published)
	if err != nil {
		log.Errorf("count posts of user %d: %s", authorID, err)
		pkg.WriteError(w, "Failed to retrieve your blogs", http.StatusInternalServerError, "Internal server error")
		return
	}

	pkg.WriteSuccess(w, "Your blogs retrieved successfully", http.StatusOK, map[string]any{
		"blogs":      emptyIfNil(posts),
		"pagination": NewPagination(myReq.Page, myReq.Limit, total),
	})
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.get")
	defer span.End()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, err := handler.repo.GetAndCountView(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pkg.WriteError(w, "Blog not found", http.StatusNotFound, "Blog does not exist")
			return
		}
		log.Errorf("get post %s: %s", id, err)
		pkg.WriteError(w, "Failed to retrieve blog", http.StatusInternalServerError, "Internal server error")
		return
	}

	handler.instr.CounterPostViews.Inc()

	pkg.WriteSuccess(w, "Blog retrieved successfully", http.StatusOK, map[string]any{
		"blog": post,
	})
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.update")
	defer span.End()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, authorized := handler.authorizedPost(ctx, w, id, "Unauthorized to update this blog")
	if !authorized {
		return
	}

	var updateReq updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		log.Errorf("update post, unmarshal json params: %s", err)
		pkg.WriteError(w, "Invalid request payload", http.StatusBadRequest, "Malformed JSON")
		return
	}

	if updateReq.Title != "" && !ValidateTitle(updateReq.Title) {
		pkg.WriteError(w, "Title must be between 3 and 200 characters", http.StatusBadRequest, "Invalid title")
		return
	}
	if updateReq.Description != "" && !ValidateDescription(updateReq.Description) {
		pkg.WriteError(w, "Description must be between 10 and 100 characters", http.StatusBadRequest, "Invalid description")
		return
	}
	if updateReq.Content != "" && !ValidateContent(updateReq.Content) {
		pkg.WriteError(w, "Content must be at least 50 characters long", http.StatusBadRequest, "Invalid content")
		return
	}

	var params UpdateParams
	if updateReq.Title != "" {
		title := strings.TrimSpace(updateReq.Title)
		params.Title = &title
	}
	if updateReq.Description != "" {
		description := strings.TrimSpace(updateReq.Description)
		params.Description = &description
	}
	if updateReq.Content != "" {
		content := strings.TrimSpace(updateReq.Content)
		params.Content = &content
	}
	if updateReq.CoverImageURL != "" && updateReq.CoverImageURL != post.CoverImage {
		params.CoverImage = &updateReq.CoverImageURL
	}
	if updateReq.Published != nil {
		params.Published = updateReq.Published
		// publishedOn is stamped on the first publish and never cleared
		if *updateReq.Published && post.PublishedOn == nil {
			now := time.Now()
			params.PublishedOn = &now
		}
	}

	if err := handler.repo.Update(ctx, id, params); err != nil {
		log.Errorf("update post %s: %s", id, err)
		pkg.WriteError(w, "Failed to update blog", http.StatusInternalServerError, "Internal server error")
		return
	}

	pkg.WriteSuccess(w, "Blog updated successfully", http.StatusOK, nil)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.delete")
	defer span.End()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	if _, authorized := handler.authorizedPost(ctx, w, id, "Unauthorized to delete this blog"); !authorized {
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		log.Errorf("delete post %s: %s", id, err)
		pkg.WriteError(w, "Failed to delete blog", http.StatusInternalServerError, "Internal server error")
		return
	}

	pkg.WriteSuccess(w, "Blog deleted successfully", http.StatusOK, map[string]any{
		"message": "Blog has been deleted",
	})
}

func (handler *Handler) handleTogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "postsHandler.togglePublish")
	defer span.End()

	id, ok := postID(w, r)
	if !ok {
		return
	}

	post, authorized := handler.authorizedPost(ctx, w, id, "Unauthorized to modify this blog")
	if !authorized {
		return
	}

	published := !post.Published
	params := UpdateParams{
		Published: &published,
	}
	if published && post.PublishedOn == nil {
		now := time.Now()
		params.PublishedOn = &now
	}

	if err := handler.repo.Update(ctx, id, params); err != nil {
		log.Errorf("toggle publish of post %s: %s", id, err)
		pkg.WriteError(w, "Failed to update blog status", http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := handler.repo.Get(ctx, id)
	if err != nil {
		log.Errorf("get post %s after publish toggle: %s", id, err)
		pkg.WriteError(w, "Failed to update blog status", http.StatusInternalServerError, "Internal server error")
		return
	}

	msg := "Blog unpublished successfully"
	if updated.Published {
		msg = "Blog published successfully"
	}
	pkg.WriteSuccess(w, msg, http.StatusOK, map[string]any{
		"blog": updated,
	})
}

// authorizedPost loads the post and verifies the requester owns it,
// writing the proper error envelope otherwise.
func (handler *Handler) authorizedPost(
	ctx context.Context,
	w http.ResponseWriter,
	id uuid.UUID,
	forbiddenMsg string,
) (*Post, bool) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, "Access denied. No token provided.", http.StatusUnauthorized, "Authentication required")
		return nil, false
	}

	post, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			pkg.WriteError(w, "Blog not found", http.StatusNotFound, "Blog does not exist")
			return nil, false
		}
		log.Errorf("get post %s: %s", id, err)
		pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Something went wrong")
		return nil, false
	}

	if post.AuthorID != userID {
		log.Tracef("user %d denied on post %s of user %d", userID, id, post.AuthorID)
		pkg.WriteError(w, forbiddenMsg, http.StatusForbidden, "Access denied")
		return nil, false
	}

	return post, true
}

func postID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteError(w, "Blog not found", http.StatusNotFound, "Blog does not exist")
		return uuid.Nil, false
	}
	return id, true
}

func decodeListRequest(r *http.Request) (listPostsRequest, error) {
	listReq := listPostsRequest{}
	if err := json.NewDecoder(r.Body).Decode(&listReq); err != nil && !errors.Is(err, io.EOF) {
		return listReq, err
	}
	if listReq.Page < 1 {
		listReq.Page = defaultPage
	}
	if listReq.Limit < 1 {
		listReq.Limit = defaultLimit
	}
	return listReq, nil
}

// emptyIfNil keeps empty listings as [] instead of null in the envelope
func emptyIfNil(posts []*Post) []*Post {
	if posts == nil {
		return []*Post{}
	}
	return posts
}
