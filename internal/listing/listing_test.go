package listing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/yatube/internal/db"
	apperrors "github.com/sujalbistaa/yatube/internal/errors"
	"github.com/sujalbistaa/yatube/internal/follow"
	"github.com/sujalbistaa/yatube/internal/models"
	"github.com/sujalbistaa/yatube/internal/store"
)

const (
	allPostNumber    = 15
	firstPostNumber  = 10
	secondPostNumber = allPostNumber - firstPostNumber
)

type fixture struct {
	store   *store.Store
	graph   *follow.Graph
	service *Service
	author  *models.User
	group   *models.Group
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := store.New(db.NewTestDB(t), store.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	g := follow.NewGraph(s)

	ctx := context.Background()
	author, err := s.CreateUser(ctx, "author", "hash")
	require.NoError(t, err)
	group, err := s.CreateGroup(ctx, store.GroupInput{Title: "Test group", Slug: "test_slug", Description: "d"})
	require.NoError(t, err)

	return &fixture{store: s, graph: g, service: NewService(s, g, DefaultPageSize), author: author, group: group}
}

func (f *fixture) post(t *testing.T, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	in := store.PostInput{AuthorID: author.ID, Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := f.store.CreatePost(context.Background(), in)
	require.NoError(t, err)
	return p
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader, err := f.store.CreateUser(ctx, "reader", "hash")
	require.NoError(t, err)
	require.NoError(t, f.graph.Follow(ctx, reader.ID, f.author.ID))
	for i := 0; i < allPostNumber; i++ {
		f.post(t, f.author, f.group, fmt.Sprintf("text%d", i))
	}

	listings := map[string]func(page int) (*Page, error){
		"index": func(page int) (*Page, error) { return f.service.AllPosts(ctx, page) },
		"group": func(page int) (*Page, error) {
			_, p, err := f.service.PostsByGroup(ctx, "test_slug", page)
			return p, err
		},
		"profile": func(page int) (*Page, error) {
			_, p, err := f.service.PostsByAuthor(ctx, "author", page)
			return p, err
		},
		"feed": func(page int) (*Page, error) { return f.service.Feed(ctx, reader.ID, page) },
	}

	for name, list := range listings {
		t.Run(name, func(t *testing.T) {
			first, err := list(1)
			require.NoError(t, err)
			assert.Len(t, first.Items, firstPostNumber)
			assert.True(t, first.HasNext)
			assert.False(t, first.HasPrevious)
			assert.Equal(t, int64(allPostNumber), first.Total)
			assert.Equal(t, 2, first.NumPages)

			second, err := list(2)
			require.NoError(t, err)
			assert.Len(t, second.Items, secondPostNumber)
			assert.False(t, second.HasNext)
			assert.True(t, second.HasPrevious)

			third, err := list(3)
			require.NoError(t, err)
			assert.Empty(t, third.Items)
			assert.NotNil(t, third.Items)
		})
	}
}

func TestPageFarPastTheEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		f.post(t, f.author, nil, fmt.Sprintf("text%d", i))
	}

	huge := ParsePage("922337203685477582")
	page, err := f.service.AllPosts(ctx, huge)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, huge, page.Number)
	assert.Equal(t, int64(3), page.Total)
	assert.False(t, page.HasNext)

	_, page, err = f.service.PostsByAuthor(ctx, "author", huge)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestAllPostsNewestFirst(t *testing.T) {
	f := newFixture(t)
	p1 := f.post(t, f.author, nil, "older")
	p2 := f.post(t, f.author, nil, "newer")

	page, err := f.service.AllPosts(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, p2.ID, page.Items[0].ID)
	assert.Equal(t, p1.ID, page.Items[1].ID)
	assert.True(t, page.Items[0].PubDate.After(page.Items[1].PubDate))
}

func TestEmptyListing(t *testing.T) {
	f := newFixture(t)

	page, err := f.service.AllPosts(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.NumPages)
	assert.False(t, page.HasNext)
}

func TestPostsByGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.store.CreateGroup(ctx, store.GroupInput{Title: "Other", Slug: "other", Description: "d"})
	require.NoError(t, err)
	mine := f.post(t, f.author, f.group, "in group")
	f.post(t, f.author, other, "elsewhere")
	f.post(t, f.author, nil, "no group")

	group, page, err := f.service.PostsByGroup(ctx, "test_slug", 1)
	require.NoError(t, err)
	assert.Equal(t, f.group.ID, group.ID)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)
	assert.Equal(t, "test_slug", page.Items[0].Group.Slug)

	_, _, err = f.service.PostsByGroup(ctx, "missing", 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPostsByAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other, err := f.store.CreateUser(ctx, "other", "hash")
	require.NoError(t, err)
	mine := f.post(t, f.author, nil, "mine")
	f.post(t, other, nil, "theirs")

	author, page, err := f.service.PostsByAuthor(ctx, "author", 1)
	require.NoError(t, err)
	assert.Equal(t, "author", author.Username)
	require.Len(t, page.Items, 1)
	assert.Equal(t, mine.ID, page.Items[0].ID)

	_, _, err = f.service.PostsByAuthor(ctx, "ghost", 1)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader, err := f.store.CreateUser(ctx, "reader", "hash")
	require.NoError(t, err)
	p1 := f.post(t, f.author, nil, "followed author's post")
	f.post(t, reader, nil, "reader's own post")

	empty, err := f.service.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, empty.Items)

	require.NoError(t, f.graph.Follow(ctx, reader.ID, f.author.ID))

	feed, err := f.service.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, p1.ID, feed.Items[0].ID)

	// a new post by the followed author shows up on top
	p2 := f.post(t, f.author, nil, "fresh")
	feed, err = f.service.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, p2.ID, feed.Items[0].ID)
}

func TestFeedAfterGroupAndAuthorDeletes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reader, err := f.store.CreateUser(ctx, "reader", "hash")
	require.NoError(t, err)
	f.post(t, f.author, f.group, "grouped")
	require.NoError(t, f.graph.Follow(ctx, reader.ID, f.author.ID))

	require.NoError(t, f.store.DeleteGroup(ctx, "test_slug"))
	feed, err := f.service.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	require.Len(t, feed.Items, 1)
	assert.Nil(t, feed.Items[0].Group)

	require.NoError(t, f.store.DeleteUser(ctx, f.author.ID))
	feed, err = f.service.Feed(ctx, reader.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, feed.Items)
}
