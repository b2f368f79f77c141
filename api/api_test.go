package api

import (
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoshinonyaruko/snake-in-canvas/structs"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stateBody struct {
	GroupID   string             `json:"group_id"`
	Height    int                `json:"height"`
	Width     int                `json:"width"`
	Score     int                `json:"score"`
	Lives     int                `json:"lives"`
	TickCount int                `json:"tick_count"`
	Running   bool               `json:"running"`
	Direction string             `json:"direction"`
	Head      structs.Position   `json:"head"`
	Body      []structs.Position `json:"body"`
	Events    []struct {
		Kind string `json:"kind"`
	} `json:"events"`
}

func setup(t *testing.T) (*gin.Engine, *Manager, string) {
	t.Helper()
	m := NewManager(context.Background(), 0)
	t.Cleanup(m.Close)
	dir := t.TempDir()
	return NewRouter(m, dir), m, dir
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateBody {
	t.Helper()
	var body stateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestNewGame(t *testing.T) {
	router, m, _ := setup(t)

	w := get(router, "/new-game?groupid=g1&height=21&width=11&speed=21&seed=5")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeState(t, w)
	assert.Equal(t, "g1", body.GroupID)
	assert.Equal(t, 21, body.Height)
	assert.Equal(t, 11, body.Width)
	assert.Equal(t, 3, body.Lives)
	assert.True(t, body.Running)
	assert.Equal(t, "down", body.Direction)
	assert.Equal(t, structs.Position{X: 5, Y: 10}, body.Head)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "FOOD_ADDED", body.Events[0].Kind)

	_, ok := m.Get("g1")
	assert.True(t, ok)
}

func TestNewGameBadRequests(t *testing.T) {
	router, m, _ := setup(t)

	assert.Equal(t, http.StatusBadRequest, get(router, "/new-game").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/new-game?groupid=g&height=abc").Code)

	w := get(router, "/new-game?groupid=g&height=4&width=11")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid dimensions")

	w = get(router, "/new-game?groupid=big&height=50000&width=50000")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "exceeds the maximum")
	assert.Equal(t, http.StatusBadRequest, get(router, "/new-game?groupid=big&height=21&width=201").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/new-game?groupid=big&height=201&width=11").Code)
	_, ok := m.Get("big")
	assert.False(t, ok)

	assert.Equal(t, http.StatusOK, get(router, "/new-game?groupid=edge&height=200&width=200&speed=1").Code)
}

func TestUpdateDirectionAndTick(t *testing.T) {
	router, _, _ := setup(t)
	require.Equal(t, http.StatusOK, get(router, "/new-game?groupid=g&height=21&width=11&speed=1&seed=3").Code)

	assert.Equal(t, http.StatusNotFound, get(router, "/update-direction?groupid=other&direction=left").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/update-direction?groupid=g").Code)
	assert.Equal(t, http.StatusBadRequest, get(router, "/update-direction?groupid=g&direction=sideways").Code)
	require.Equal(t, http.StatusOK, get(router, "/update-direction?groupid=g&direction=ArrowLeft").Code)

	w := get(router, "/tick?groupid=g")
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeState(t, w)
	assert.Equal(t, "left", body.Direction)
	assert.Equal(t, 1, body.TickCount)

	assert.Equal(t, http.StatusBadRequest, get(router, "/tick?groupid=g&n=0").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/tick?groupid=nope").Code)
}

func TestTickUntilGameOver(t *testing.T) {
	router, _, _ := setup(t)
	require.Equal(t, http.StatusOK, get(router, "/new-game?groupid=g&height=5&width=5&speed=1&seed=3").Code)

	// 一直向下走，每条命都会很快撞墙
	w := get(router, "/tick?groupid=g&n=100")
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, get(router, "/state?groupid=g"))
	assert.False(t, state.Running)
	assert.Equal(t, 0, state.Lives)

	kinds := map[string]int{}
	for _, e := range state.Events {
		kinds[e.Kind]++
	}
	assert.Equal(t, 1, kinds["GAME_OVER"])
	assert.Equal(t, 2, kinds["DIED"])
}

func TestRenderMap(t *testing.T) {
	router, _, dir := setup(t)
	require.Equal(t, http.StatusOK, get(router, "/new-game?groupid=g&height=7&width=9").Code)

	w := get(router, "/render-map?groupid=g")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp["image_url"], "/static/g.png")
	assert.FileExists(t, filepath.Join(dir, "g.png"))

	w = get(router, "/render-map?groupid=g&format=png")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, 9*20, img.Bounds().Dx())
}

func TestDeleteMap(t *testing.T) {
	router, m, _ := setup(t)
	require.Equal(t, http.StatusOK, get(router, "/new-game?groupid=g").Code)

	assert.Equal(t, http.StatusOK, get(router, "/delete-map?groupid=g").Code)
	_, ok := m.Get("g")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, get(router, "/delete-map?groupid=g").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/state?groupid=g").Code)
}

func TestSessionTickLoop(t *testing.T) {
	m := NewManager(context.Background(), time.Millisecond)
	t.Cleanup(m.Close)

	s, err := m.Create("loop", GameOptions{Height: 5, Width: 5, BaseSpeed: 1, Seed: 1})
	require.NoError(t, err)

	// 5x5 上一直向下，三条命很快用完，循环自己退出
	assert.Eventually(t, func() bool {
		return !s.State().Running
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.State().Lives)
}
