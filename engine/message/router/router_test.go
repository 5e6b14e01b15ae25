package msgrouter_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/server/appstate"
	"github.com/msgboard/msgboard/engine/infra/store"
	msgrouter "github.com/msgboard/msgboard/engine/message/router"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBoard struct {
	engine *gin.Engine
	state  *appstate.State
}

func newTestBoard(t *testing.T) *testBoard {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "board.db")
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.Primary.Path = path
	cfg.Database.Standby.Path = path
	chain, err := store.NewRouter(&cfg.Database)
	require.NoError(t, err)
	cluster, err := store.OpenCluster(ctx, &cfg.Database, chain)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cluster.Close(ctx) })
	_, err = cluster.Migrate(ctx)
	require.NoError(t, err)
	state, err := appstate.NewState(cfg, cluster)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(appstate.StateMiddleware(state))
	msgrouter.Register(r, r.Group("/api/v0"))
	return &testBoard{engine: r, state: state}
}

func (b *testBoard) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	b.engine.ServeHTTP(w, req)
	return w
}

func (b *testBoard) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, http.NoBody))
}

func (b *testBoard) postForm(values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *testBoard) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func (b *testBoard) seed(t *testing.T, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := b.state.Messages.Post(context.Background(), fmt.Sprintf("message %02d", i))
		require.NoError(t, err)
	}
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestIndexPage(t *testing.T) {
	t.Run("Should show placeholders on an empty board", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.get("/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "There are no messages to display.")
		assert.Contains(t, w.Body.String(), "N/A")
		assert.NotContains(t, w.Body.String(), "class=\"warning\"")
	})

	t.Run("Should save a message and redirect to the archive", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postForm(url.Values{"msg": {"hello board"}})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/archive", w.Header().Get("Location"))
		home := b.get("/")
		assert.Contains(t, home.Body.String(), "hello board")
		assert.NotContains(t, home.Body.String(), "There are no messages to display.")
	})

	t.Run("Should warn on an empty submission", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postForm(url.Values{"msg": {""}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The message submitted was empty! Please try again.")
		count, err := b.state.Cluster.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Should warn when the field is missing", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postForm(url.Values{"other": {"x"}})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "The message submitted was empty! Please try again.")
	})

	t.Run("Should keep whitespace-only messages", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postForm(url.Values{"msg": {"   "}})
		assert.Equal(t, http.StatusFound, w.Code)
	})

	t.Run("Should reject messages above the limit", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postForm(url.Values{"msg": {strings.Repeat("x", 201)}})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "too long")
	})

	t.Run("Should escape message text", func(t *testing.T) {
		b := newTestBoard(t)
		b.postForm(url.Values{"msg": {"<b>bold</b>"}})
		body := b.get("/").Body.String()
		assert.Contains(t, body, "&lt;b&gt;bold&lt;/b&gt;")
		assert.NotContains(t, body, "<b>bold</b>")
	})
}

func TestArchivePage(t *testing.T) {
	t.Run("Should render an empty first page", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.get("/archive")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Page 1 of 1.")
	})

	t.Run("Should paginate newest first", func(t *testing.T) {
		b := newTestBoard(t)
		b.seed(t, 12)
		first := b.get("/archive").Body.String()
		assert.Contains(t, first, "Page 1 of 2.")
		assert.Contains(t, first, "message 12")
		assert.Contains(t, first, "message 03")
		assert.NotContains(t, first, "message 02")
		second := b.get("/archive?page=2").Body.String()
		assert.Contains(t, second, "Page 2 of 2.")
		assert.Contains(t, second, "message 01")
		assert.NotContains(t, second, "message 12")
	})

	t.Run("Should fall back for bad page numbers", func(t *testing.T) {
		b := newTestBoard(t)
		b.seed(t, 12)
		assert.Contains(t, b.get("/archive?page=abc").Body.String(), "Page 1 of 2.")
		assert.Contains(t, b.get("/archive?page=99").Body.String(), "Page 2 of 2.")
		assert.Contains(t, b.get("/archive?page=0").Body.String(), "Page 2 of 2.")
	})
}

func TestMessagesAPI(t *testing.T) {
	t.Run("Should return not found for an empty board", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.get("/api/v0/messages/latest")
		require.Equal(t, http.StatusNotFound, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
	})

	t.Run("Should create and fetch a message", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postJSON("/api/v0/messages", `{"text":"via api"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		var created struct {
			ID   int64  `json:"id"`
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
		assert.Positive(t, created.ID)
		assert.Equal(t, "via api", created.Text)

		latest := b.get("/api/v0/messages/latest")
		require.Equal(t, http.StatusOK, latest.Code)
		var got struct {
			ID   int64  `json:"id"`
			Text string `json:"text"`
		}
		require.NoError(t, json.Unmarshal(decode(t, latest).Data, &got))
		assert.Equal(t, created.ID, got.ID)
	})

	t.Run("Should reject empty text", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postJSON("/api/v0/messages", `{"text":""}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode(t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, "BAD_REQUEST", env.Error.Code)
	})

	t.Run("Should reject malformed bodies", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.postJSON("/api/v0/messages", `{"text":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Should list a page", func(t *testing.T) {
		b := newTestBoard(t)
		b.seed(t, 12)
		w := b.get("/api/v0/messages?page=2")
		require.Equal(t, http.StatusOK, w.Code)
		var page struct {
			Messages   []struct{ Text string } `json:"messages"`
			Number     int                     `json:"number"`
			TotalPages int                     `json:"total_pages"`
			Total      int64                   `json:"total"`
		}
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &page))
		assert.Equal(t, 2, page.Number)
		assert.Equal(t, 2, page.TotalPages)
		assert.Equal(t, int64(12), page.Total)
		require.Len(t, page.Messages, 2)
		assert.Equal(t, "message 02", page.Messages[0].Text)
	})
}

func TestRoutingAPI(t *testing.T) {
	t.Run("Should describe the replica routing", func(t *testing.T) {
		b := newTestBoard(t)
		w := b.get("/api/v0/routing")
		require.Equal(t, http.StatusOK, w.Code)
		var routing store.Routing
		require.NoError(t, json.Unmarshal(decode(t, w).Data, &routing))
		assert.Equal(t, "standby", routing.Read)
		assert.Equal(t, "primary", routing.Write)
		assert.True(t, routing.Relation)
		assert.Equal(t, map[string]bool{"primary": true, "standby": false}, routing.Migrate)
	})
}

func TestPostGuard(t *testing.T) {
	t.Run("Should run the guard before storing", func(t *testing.T) {
		b := newTestBoard(t)
		r := gin.New()
		r.Use(appstate.StateMiddleware(b.state))
		msgrouter.Register(r, r.Group("/api/v0"), func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTooManyRequests)
		})
		b.engine = r
		assert.Equal(t, http.StatusTooManyRequests, b.postForm(url.Values{"msg": {"x"}}).Code)
		assert.Equal(t, http.StatusTooManyRequests, b.postJSON("/api/v0/messages", `{"text":"x"}`).Code)
		assert.Equal(t, http.StatusOK, b.get("/").Code)
	})
}
