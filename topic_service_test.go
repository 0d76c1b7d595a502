package board_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/coregx/board"
	"github.com/coregx/board/internal/boardtest"
	"github.com/coregx/board/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	store *boardtest.Store
	svc   *board.TopicService
	tt    model.TopicType
	topic model.Topic
	user  model.User
}

func newServiceFixture(t *testing.T, opts ...board.TopicServiceOption) serviceFixture {
	t.Helper()
	store := boardtest.NewStore()
	tt := store.SeedTopicType("General")
	topic := store.SeedTopic("Welcome", "Say hi", tt.ID)
	user := store.SeedUser("ada", model.RoleUser, "token-ada")

	base := []board.TopicServiceOption{
		board.WithTopicServiceRepositories(store.Topics(), store.Comments()),
		board.WithTopicServiceLogger(&board.NoopLogger{}),
	}
	svc, err := board.NewTopicService(append(base, opts...)...)
	require.NoError(t, err)

	return serviceFixture{store: store, svc: svc, tt: tt, topic: topic, user: user}
}

func TestNewTopicService_RequiredOptions(t *testing.T) {
	store := boardtest.NewStore()

	_, err := board.NewTopicService(board.WithTopicServiceLogger(&board.NoopLogger{}))
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))

	_, err = board.NewTopicService(board.WithTopicServiceRepositories(store.Topics(), store.Comments()))
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))

	_, err = board.NewTopicService(board.WithTopicServiceRepositories(nil, store.Comments()))
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))
}

func TestTopicService_Update(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	update := model.TopicUpdate{TopicID: f.topic.ID, Name: "Hello", Description: "Updated", TopicTypeID: f.tt.ID}
	got, err := f.svc.Update(ctx, update)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Hello", got.Name)

	stored, _ := f.store.Topic(f.topic.ID)
	assert.Equal(t, *got, stored)
}

func TestTopicService_Update_Idempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	update := model.TopicUpdate{TopicID: f.topic.ID, Name: "Hello", Description: "Updated", TopicTypeID: f.tt.ID}

	first, err := f.svc.Update(ctx, update)
	require.NoError(t, err)
	second, err := f.svc.Update(ctx, update)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
	stored, _ := f.store.Topic(f.topic.ID)
	assert.Equal(t, *first, stored)
}

func TestTopicService_Update_NotFound(t *testing.T) {
	f := newServiceFixture(t)
	before, _ := f.store.Topic(f.topic.ID)

	got, err := f.svc.Update(context.Background(), model.TopicUpdate{TopicID: 999, Name: "x", Description: "y", TopicTypeID: f.tt.ID})
	assert.Nil(t, got)
	assert.True(t, board.IsNoData(err))
	assert.Zero(t, f.store.Writes)

	after, _ := f.store.Topic(f.topic.ID)
	assert.Equal(t, before, after)
}

func TestTopicService_Update_Invalid(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Update(context.Background(), model.TopicUpdate{TopicID: f.topic.ID, Name: "", Description: "y", TopicTypeID: f.tt.ID})
	assert.True(t, board.IsValidation(err))
	assert.Zero(t, f.store.Accesses())
}

func TestTopicService_Update_ConcurrentLastWriteWins(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	names := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			_, err := f.svc.Update(ctx, model.TopicUpdate{TopicID: f.topic.ID, Name: name, Description: name, TopicTypeID: f.tt.ID})
			assert.NoError(t, err)
		}(name)
	}
	wg.Wait()

	stored, _ := f.store.Topic(f.topic.ID)
	assert.Contains(t, names, stored.Name)
	assert.Equal(t, stored.Name, stored.Description, "one update must win as a whole")
}

func TestTopicService_AddComment(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	f := newServiceFixture(t, board.WithClock(func() time.Time { return now }))

	c, err := f.svc.AddComment(context.Background(), model.CommentInput{TopicID: f.topic.ID, UserID: f.user.ID, Body: "hello"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, now, c.Timestamp)
	assert.Equal(t, 1, f.store.CommentCount())

	comments, err := f.svc.Comments(context.Background(), f.topic.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c, comments[0])
}

func TestTopicService_AddComment_DanglingTopic(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.AddComment(context.Background(), model.CommentInput{TopicID: 999, UserID: f.user.ID, Body: "hello"})
	require.Error(t, err)
	assert.True(t, board.IsConstraintViolation(err))
	assert.Zero(t, f.store.CommentCount())
}

func TestTopicService_AddComment_ReferenceCheck(t *testing.T) {
	store := boardtest.NewStore()
	tt := store.SeedTopicType("General")
	topic := store.SeedTopic("Welcome", "Say hi", tt.ID)
	user := store.SeedUser("ada", model.RoleUser, "token-ada")

	svc, err := board.NewTopicService(
		board.WithTopicServiceRepositories(store.Topics(), store.Comments()),
		board.WithTopicServiceLogger(&board.NoopLogger{}),
		board.WithReferenceCheck(store.TopicTypes(), store.Users()),
	)
	require.NoError(t, err)
	assert.True(t, svc.ReferenceCheck())
	ctx := context.Background()

	_, err = svc.AddComment(ctx, model.CommentInput{TopicID: 999, UserID: user.ID, Body: "x"})
	assert.True(t, board.IsValidation(err))

	_, err = svc.AddComment(ctx, model.CommentInput{TopicID: topic.ID, UserID: 999, Body: "x"})
	assert.True(t, board.IsValidation(err))

	assert.Zero(t, store.Writes, "pre-checks fail before any write")

	_, err = svc.AddComment(ctx, model.CommentInput{TopicID: topic.ID, UserID: user.ID, Body: "x"})
	assert.NoError(t, err)
}

func TestTopicService_AddComment_PersistenceFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.store.FailWrites = true

	_, err := f.svc.AddComment(context.Background(), model.CommentInput{TopicID: f.topic.ID, UserID: f.user.ID, Body: "x"})
	require.Error(t, err)
	assert.Equal(t, board.ErrCodeDatabase, board.ErrorCode(err))
}

func TestTopicService_CreateGetListDelete(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, model.NewTopic("News", "What's new", f.tt.ID))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.AddComment(ctx, model.CommentInput{TopicID: created.ID, UserID: f.user.ID, Body: "x"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))
	_, err = f.svc.Get(ctx, created.ID)
	assert.True(t, board.IsNoData(err))
	assert.Zero(t, f.store.CommentCount())

	err = f.svc.Delete(ctx, created.ID)
	assert.True(t, board.IsNoData(err))
}

func TestTopicService_Create_Invalid(t *testing.T) {
	f := newServiceFixture(t, board.WithReferenceCheck(boardtest.NewStore().TopicTypes(), boardtest.NewStore().Users()))

	_, err := f.svc.Create(context.Background(), model.NewTopic("", "d", f.tt.ID))
	assert.True(t, board.IsValidation(err))

	// the reference-check repository knows no topic types
	_, err = f.svc.Create(context.Background(), model.NewTopic("n", "d", f.tt.ID))
	assert.True(t, board.IsValidation(err))
}

func TestTopicService_TopicTypes(t *testing.T) {
	f := newServiceFixture(t)
	_, err := f.svc.ListTopicTypes(context.Background())
	assert.Equal(t, board.ErrCodeConfiguration, board.ErrorCode(err))

	store := boardtest.NewStore()
	svc, err := board.NewTopicService(
		board.WithTopicServiceRepositories(store.Topics(), store.Comments()),
		board.WithTopicServiceLogger(&board.NoopLogger{}),
		board.WithTopicTypeRepository(store.TopicTypes()),
	)
	require.NoError(t, err)
	assert.False(t, svc.ReferenceCheck())

	tt, err := svc.CreateTopicType(context.Background(), model.NewTopicType("Q&A"))
	require.NoError(t, err)
	assert.NotZero(t, tt.ID)

	types, err := svc.ListTopicTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.TopicType{tt}, types)

	_, err = svc.CreateTopicType(context.Background(), model.NewTopicType(""))
	assert.True(t, board.IsValidation(err))
}
