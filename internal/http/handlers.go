package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sujalbistaa/yatube/internal/auth"
	"github.com/sujalbistaa/yatube/internal/cache"
	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/follow"
	"github.com/sujalbistaa/yatube/internal/listing"
	"github.com/sujalbistaa/yatube/internal/logger"
	"github.com/sujalbistaa/yatube/internal/media"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/store"
)

const jsonContentType = "application/json; charset=utf-8"

// --- Handlers ---
type Env struct {
	Store   *store.Store
	Graph   *follow.Graph
	Listing *listing.Service
	Cache   cache.Cache
	Media   media.Storage
	Tokens  *auth.Tokens

	IndexCacheTTL time.Duration
	MaxImageBytes int64
}

type postDetailResponse struct {
	Post     *models.Post     `json:"post"`
	Comments []models.Comment `json:"comments"`
}

type profileResponse struct {
	Author    *models.User  `json:"author"`
	PostCount int64         `json:"postCount"`
	Following bool          `json:"following"`
	Page      *listing.Page `json:"page"`
}

type groupResponse struct {
	Group *models.Group `json:"group"`
	Page  *listing.Page `json:"page"`
}

type pageResponse struct {
	Page *listing.Page `json:"page"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Index serves the home listing. Page one is served from the page cache and
// only re-rendered once the cached copy expires or is cleared.
func (e *Env) Index(c *gin.Context) {
	ctx := c.Request.Context()
	page := listing.ParsePage(c.Query("page"))
	cacheable := page == 1 && e.Cache != nil

	if cacheable {
		body, ok, err := e.Cache.Get(ctx, cache.IndexPageKey)
		if err != nil {
			logger.Log.Warn("page cache read failed", zap.Error(err))
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, jsonContentType, body)
			return
		}
	}

	p, err := e.Listing.AllPosts(ctx, page)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	body, err := json.Marshal(pageResponse{Page: p})
	if err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrInternal, "failed to render page", err))
		return
	}

	if cacheable {
		if err := e.Cache.Set(ctx, cache.IndexPageKey, body, e.IndexCacheTTL); err != nil {
			logger.Log.Warn("page cache write failed", zap.Error(err))
		}
		c.Header("X-Cache", "MISS")
	}
	c.Data(http.StatusOK, jsonContentType, body)
}

func (e *Env) GroupPosts(c *gin.Context) {
	group, p, err := e.Listing.PostsByGroup(c.Request.Context(), c.Param("slug"), listing.ParsePage(c.Query("page")))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, groupResponse{Group: group, Page: p})
}

func (e *Env) Profile(c *gin.Context) {
	ctx := c.Request.Context()
	author, p, err := e.Listing.PostsByAuthor(ctx, c.Param("username"), listing.ParsePage(c.Query("page")))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	resp := profileResponse{Author: author, PostCount: p.Total, Page: p}
	if viewer := CurrentUser(c); viewer != nil && viewer.ID != author.ID {
		resp.Following, err = e.Graph.IsFollowing(ctx, viewer.ID, author.ID)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (e *Env) PostDetail(c *gin.Context) {
	post, ok := e.loadPost(c)
	if !ok {
		return
	}
	comments, err := e.Store.CommentsForPost(c.Request.Context(), post.ID)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, postDetailResponse{Post: post, Comments: comments})
}

func (e *Env) CreatePost(c *gin.Context) {
	user := CurrentUser(c)

	var form PostForm
	fields := bindForm(c, &form)
	img := e.readImage(c, &fields)
	if err := validationError(fields); err != nil {
		apperrors.HandleError(c, err)
		return
	}

	in := store.PostInput{AuthorID: user.ID, Text: form.Text, GroupID: form.GroupID()}
	if img != nil {
		ref, err := media.Store(c.Request.Context(), e.Media, img)
		if err != nil {
			apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrStorage, "failed to store image", err))
			return
		}
		in.Image = ref
	}

	post, err := e.Store.CreatePost(c.Request.Context(), in)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Header("Location", "/profile/"+user.Username+"/")
	c.JSON(http.StatusCreated, post)
}

// EditPostForm returns the post its author is about to edit.
func (e *Env) EditPostForm(c *gin.Context) {
	post, ok := e.loadOwnPost(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, post)
}

func (e *Env) EditPost(c *gin.Context) {
	post, ok := e.loadOwnPost(c)
	if !ok {
		return
	}

	var form PostForm
	fields := bindForm(c, &form)
	img := e.readImage(c, &fields)
	if err := validationError(fields); err != nil {
		apperrors.HandleError(c, err)
		return
	}

	update := store.PostUpdate{Text: form.Text, GroupID: form.GroupID()}
	if img != nil {
		ref, err := media.Store(c.Request.Context(), e.Media, img)
		if err != nil {
			apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrStorage, "failed to store image", err))
			return
		}
		update.Image = &ref
	}

	updated, err := e.Store.UpdatePost(c.Request.Context(), post.ID, update)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Header("Location", "/posts/"+strconv.FormatUint(uint64(post.ID), 10)+"/")
	c.JSON(http.StatusOK, updated)
}

func (e *Env) AddComment(c *gin.Context) {
	post, ok := e.loadPost(c)
	if !ok {
		return
	}

	var form CommentForm
	if err := validationError(bindForm(c, &form)); err != nil {
		apperrors.HandleError(c, err)
		return
	}

	comment, err := e.Store.CreateComment(c.Request.Context(), post.ID, CurrentUser(c).ID, form.Text)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (e *Env) FollowIndex(c *gin.Context) {
	p, err := e.Listing.Feed(c.Request.Context(), CurrentUser(c).ID, listing.ParsePage(c.Query("page")))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse{Page: p})
}

func (e *Env) ProfileFollow(c *gin.Context) {
	e.toggleFollow(c, true)
}

func (e *Env) ProfileUnfollow(c *gin.Context) {
	e.toggleFollow(c, false)
}

func (e *Env) toggleFollow(c *gin.Context, on bool) {
	ctx := c.Request.Context()
	author, err := e.Store.UserByUsername(ctx, c.Param("username"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	user := CurrentUser(c)
	if on {
		err = e.Graph.Follow(ctx, user.ID, author.ID)
	} else {
		err = e.Graph.Unfollow(ctx, user.ID, author.ID)
	}
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"author": author.Username, "following": on})
}

// --- Accounts ---

func (e *Env) Signup(c *gin.Context) {
	var form CredentialsForm
	if err := validationError(bindForm(c, &form)); err != nil {
		apperrors.HandleError(c, err)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrInternal, "failed to hash password", err))
		return
	}
	user, err := e.Store.CreateUser(c.Request.Context(), form.Username, hash)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	e.issueToken(c, http.StatusCreated, user)
}

func (e *Env) Login(c *gin.Context) {
	var form CredentialsForm
	if err := validationError(bindForm(c, &form)); err != nil {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrInvalidCredentials, "invalid username or password"))
		return
	}

	user, err := e.Store.UserByUsername(c.Request.Context(), form.Username)
	if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
		apperrors.HandleError(c, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, form.Password) {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrInvalidCredentials, "invalid username or password"))
		return
	}
	e.issueToken(c, http.StatusOK, user)
}

func (e *Env) issueToken(c *gin.Context, status int, user *models.User) {
	token, err := e.Tokens.Generate(user.ID)
	if err != nil {
		apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrInternal, "failed to issue token", err))
		return
	}
	c.JSON(status, tokenResponse{Token: token, User: user})
}

// --- Groups and administration ---

func (e *Env) ListGroups(c *gin.Context) {
	groups, err := e.Store.ListGroups(c.Request.Context())
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (e *Env) CreateGroup(c *gin.Context) {
	var form GroupForm
	if err := validationError(bindForm(c, &form)); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	group, err := e.Store.CreateGroup(c.Request.Context(), store.GroupInput(form))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (e *Env) UpdateGroup(c *gin.Context) {
	var form GroupForm
	if err := validationError(bindForm(c, &form)); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	group, err := e.Store.UpdateGroup(c.Request.Context(), c.Param("slug"), store.GroupInput(form))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (e *Env) DeleteGroup(c *gin.Context) {
	if err := e.Store.DeleteGroup(c.Request.Context(), c.Param("slug")); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeletePost removes a post and its comments.
func (e *Env) DeletePost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrNotFound, "post not found"))
		return
	}
	if err := e.Store.DeletePost(c.Request.Context(), uint(id)); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (e *Env) DeleteUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := e.Store.UserByUsername(ctx, c.Param("username"))
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}
	if err := e.Store.DeleteUser(ctx, user.ID); err != nil {
		apperrors.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClearCache drops every cached page so the next read re-renders.
func (e *Env) ClearCache(c *gin.Context) {
	if e.Cache != nil {
		if err := e.Cache.Clear(c.Request.Context()); err != nil {
			apperrors.HandleError(c, apperrors.Wrap(apperrors.ErrCache, "failed to clear cache", err))
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// NotFound answers unknown routes.
func NotFound(c *gin.Context) {
	apperrors.HandleError(c, apperrors.New(apperrors.ErrNotFound, "page not found"))
}

// --- helpers ---

func (e *Env) loadPost(c *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrNotFound, "post not found"))
		return nil, false
	}
	post, err := e.Store.PostByID(c.Request.Context(), uint(id))
	if err != nil {
		apperrors.HandleError(c, err)
		return nil, false
	}
	return post, true
}

// loadOwnPost loads the post and rejects anyone but its author.
func (e *Env) loadOwnPost(c *gin.Context) (*models.Post, bool) {
	post, ok := e.loadPost(c)
	if !ok {
		return nil, false
	}
	if post.AuthorID != CurrentUser(c).ID {
		apperrors.HandleError(c, apperrors.New(apperrors.ErrForbidden, "only the author can edit this post"))
		return nil, false
	}
	return post, true
}

// readImage returns the validated "image" upload, or nil when there is none.
// Problems are added to fields.
func (e *Env) readImage(c *gin.Context, fields *map[string]string) *media.Image {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err == nil {
		var img *media.Image
		img, err = media.ReadUpload(fh, e.MaxImageBytes)
		if err == nil {
			return img
		}
	}

	if *fields == nil {
		*fields = map[string]string{}
	}
	var unsupported *media.ErrUnsupportedType
	var tooLarge *media.ErrTooLarge
	switch {
	case errors.As(err, &unsupported):
		(*fields)["image"] = "upload a valid image: gif, jpeg, png or webp"
	case errors.As(err, &tooLarge):
		(*fields)["image"] = tooLarge.Error()
	default:
		(*fields)["image"] = "the image could not be read"
	}
	return nil
}
