package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/coregx/board"
	"github.com/coregx/board/internal/boardtest"
	"github.com/coregx/board/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	store    *boardtest.Store
	notifier *boardtest.RecordingNotifier
	router   http.Handler
	tt       model.TopicType
	topic    model.Topic
	user     model.User
	admin    model.User
}

func newAPIFixture(t *testing.T, opts ...HandlerOption) *apiFixture {
	t.Helper()
	store := boardtest.NewStore()
	f := &apiFixture{
		store:    store,
		notifier: &boardtest.RecordingNotifier{},
	}
	f.tt = store.SeedTopicType("General")
	f.topic = store.SeedTopic("Welcome", "Say hi", f.tt.ID)
	f.user = store.SeedUser("ada", model.RoleUser, "token-ada")
	f.admin = store.SeedUser("root", model.RoleAdministrator, "token-root")

	logger := &board.NoopLogger{}
	topics, err := board.NewTopicService(
		board.WithTopicServiceRepositories(store.Topics(), store.Comments()),
		board.WithTopicServiceLogger(logger),
		board.WithTopicTypeRepository(store.TopicTypes()),
	)
	require.NoError(t, err)
	favorites, err := board.NewFavoriteService(
		board.WithFavoriteRepositories(store.FavTopics(), store.Topics()),
		board.WithFavoriteLogger(logger),
	)
	require.NoError(t, err)

	f.router = NewRouter(RouterConfig{
		Handler: NewHandler(topics, favorites, f.notifier, logger, opts...),
		Auth:    NewAuthenticator(store.Users(), nil, logger),
		Logger:  logger,
	})
	return f
}

func (f *apiFixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitComment_StoresThenBroadcasts(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
		"topicId": f.topic.ID,
		"userId":  f.user.ID,
		"body":    "first!",
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.Bytes())
	assert.Equal(t, 1, f.store.CommentCount())

	calls := f.notifier.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, model.EventNewComment, calls[0].Event)

	event, ok := calls[0].Payload.(model.CommentEvent)
	require.True(t, ok)
	assert.NotZero(t, event.CommentID)

	stored, err := f.store.Comments().Load(context.Background(), event.CommentID)
	require.NoError(t, err)
	assert.Equal(t, "first!", stored.Body)
}

func TestSubmitComment_DefaultsUserToCaller(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
		"topicId": f.topic.ID,
		"body":    "hello",
	})

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.notifier.Calls(), 1)
}

func TestSubmitComment_UnknownTopic(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
		"topicId": 999,
		"userId":  f.user.ID,
		"body":    "lost",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "COMMENT_ERROR", decodeError(t, rec).Code)
	assert.Empty(t, f.notifier.Calls())
	assert.Zero(t, f.store.CommentCount())
}

func TestSubmitComment_StoreFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.store.FailWrites = true

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
		"topicId": f.topic.ID,
		"userId":  f.user.ID,
		"body":    "x",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "write failed")
	assert.Empty(t, f.notifier.Calls())
}

func TestSubmitComment_BadInput(t *testing.T) {
	f := newAPIFixture(t)

	t.Run("malformed json", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", decodeError(t, rec).Code)
	})

	t.Run("empty body text", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
			"topicId": f.topic.ID,
			"body":    "",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, board.ErrCodeValidation, decodeError(t, rec).Code)
	})

	assert.Empty(t, f.notifier.Calls())
}

func TestSubmitComment_Auth(t *testing.T) {
	f := newAPIFixture(t)
	body := map[string]interface{}{"topicId": f.topic.ID, "body": "hi"}

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/topics/AddComment", "bogus", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{
		"topicId": f.topic.ID,
		"userId":  f.admin.ID,
		"body":    "impersonating",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPost, "/api/topics/AddComment", "token-root", map[string]interface{}{
		"topicId": f.topic.ID,
		"userId":  f.user.ID,
		"body":    "on behalf",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.notifier.Calls(), 1)
}

func TestSubmitComment_RateLimited(t *testing.T) {
	f := newAPIFixture(t, WithRateLimiter(NewRateLimiter(0.001, 2)))
	body := map[string]interface{}{"topicId": f.topic.ID, "body": "spam"}

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", body).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", body).Code)

	rec := f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Len(t, f.notifier.Calls(), 2)

	// Buckets are per user.
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/topics/AddComment", "token-root", body).Code)
}

func TestUpdateTopic(t *testing.T) {
	f := newAPIFixture(t)
	path := fmt.Sprintf("/api/topics/%d", f.topic.ID)

	rec := f.do(http.MethodPut, path, "token-root", model.TopicUpdate{
		TopicID: f.topic.ID, Name: "Renamed", Description: "New", TopicTypeID: f.tt.ID,
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	got, ok := f.store.Topic(f.topic.ID)
	require.True(t, ok)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, "New", got.Description)
}

func TestUpdateTopic_IDMismatchTouchesNoTopicData(t *testing.T) {
	f := newAPIFixture(t)
	before := f.store.Accesses()

	rec := f.do(http.MethodPut, "/api/topics/5", "token-root", map[string]interface{}{
		"topicId":     7,
		"name":        "x",
		"topicTypeId": f.tt.ID,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID_MISMATCH", decodeError(t, rec).Code)
	// The only access is the bearer token lookup.
	assert.Equal(t, before+1, f.store.Accesses())
	assert.Zero(t, f.store.Writes)
}

func TestUpdateTopic_Errors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPut, "/api/topics/999", "token-root", model.TopicUpdate{
		TopicID: 999, Name: "x", TopicTypeID: f.tt.ID,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	path := fmt.Sprintf("/api/topics/%d", f.topic.ID)
	rec = f.do(http.MethodPut, path, "token-root", model.TopicUpdate{TopicID: f.topic.ID, Name: "", TopicTypeID: f.tt.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, path, "token-root", model.TopicUpdate{TopicID: f.topic.ID, Name: "x", TopicTypeID: 12345})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, path, "token-ada", model.TopicUpdate{TopicID: f.topic.ID, Name: "x", TopicTypeID: f.tt.ID})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodPut, path, "", model.TopicUpdate{TopicID: f.topic.ID, Name: "x", TopicTypeID: f.tt.ID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	got, _ := f.store.Topic(f.topic.ID)
	assert.Equal(t, "Welcome", got.Name)
}

func TestDeleteTopic(t *testing.T) {
	f := newAPIFixture(t)
	path := fmt.Sprintf("/api/topics/%d", f.topic.ID)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodDelete, path, "token-ada", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, "token-root", nil).Code)

	_, ok := f.store.Topic(f.topic.ID)
	assert.False(t, ok)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, path, "token-root", nil).Code)
}

func TestTopics_CreateGetList(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/topics", "token-ada", model.Topic{Name: "Go", Description: "gophers", TopicTypeID: f.tt.ID})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data model.Topic `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotZero(t, created.Data.ID)
	assert.Equal(t, fmt.Sprintf("/api/topics/%d", created.Data.ID), rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, rec.Header().Get("Location"), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/api/topics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Data []model.Topic `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Data, 2)

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/topics/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest,
		f.do(http.MethodPost, "/api/topics", "token-ada", model.Topic{Name: "x", TopicTypeID: 999}).Code)
}

func TestCreateTopic_RequiresCaller(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(http.MethodPost, "/api/topics", "", model.Topic{Name: "Anon", TopicTypeID: f.tt.ID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	topics, err := f.store.Topics().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, topics, 1)
}

func TestListComments(t *testing.T) {
	f := newAPIFixture(t)
	f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{"topicId": f.topic.ID, "body": "one"})
	f.do(http.MethodPost, "/api/topics/AddComment", "token-ada", map[string]interface{}{"topicId": f.topic.ID, "body": "two"})

	rec := f.do(http.MethodGet, fmt.Sprintf("/api/topics/%d/comments", f.topic.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []model.Comment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "one", resp.Data[0].Body)
}

func TestTopicTypes(t *testing.T) {
	f := newAPIFixture(t)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPost, "/api/topictypes", "token-ada", model.TopicType{Name: "News"}).Code)

	rec := f.do(http.MethodPost, "/api/topictypes", "token-root", model.TopicType{Name: "News"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/api/topictypes", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []model.TopicType `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
}

func TestFavorites(t *testing.T) {
	f := newAPIFixture(t)
	path := fmt.Sprintf("/api/favorites/%d", f.topic.ID)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPut, path, "", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPut, path, "token-ada", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPut, "/api/favorites/999", "token-ada", nil).Code)

	rec := f.do(http.MethodGet, "/api/favorites", "token-ada", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data []model.Topic `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, f.topic.ID, resp.Data[0].ID)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, path, "token-ada", nil).Code)
	rec = f.do(http.MethodGet, "/api/favorites", "token-ada", nil)
	var after struct {
		Data []model.Topic `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &after))
	assert.Empty(t, after.Data)
}

func TestHandleHealth(t *testing.T) {
	f := newAPIFixture(t, WithVersion("1.2.3"))

	rec := f.do(http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		Data    map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", resp.Data["status"])
	assert.Equal(t, "1.2.3", resp.Data["version"])
}

func TestRouter_CORS(t *testing.T) {
	store := boardtest.NewStore()
	logger := &board.NoopLogger{}
	topics, err := board.NewTopicService(
		board.WithTopicServiceRepositories(store.Topics(), store.Comments()),
		board.WithTopicServiceLogger(logger),
		board.WithTopicTypeRepository(store.TopicTypes()),
	)
	require.NoError(t, err)
	favorites, err := board.NewFavoriteService(
		board.WithFavoriteRepositories(store.FavTopics(), store.Topics()),
		board.WithFavoriteLogger(logger),
	)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Handler:        NewHandler(topics, favorites, &board.NoOpNotifier{}, logger),
		Auth:           NewAuthenticator(store.Users(), nil, logger),
		AllowedOrigins: []string{"https://board.example"},
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/topics", nil)
	req.Header.Set("Origin", "https://board.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://board.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
