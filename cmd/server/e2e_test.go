package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/authz"
	"github.com/wadjakorntonsri/go-utm-tracker/pkg/core/domain"
)

func TestIntegration(t *testing.T) {
	// 1. Setup DB
	repo, err := sqlite.NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err, "Failed to init db")
	defer repo.Close()

	// 2. Setup Router
	cfg := &config.Config{JWTSecret: "e2e-secret"}
	policy := authz.MustPolicy()

	server := httptest.NewServer(handler.NewRouter(cfg, policy, newServices(repo, policy)))
	defer server.Close()

	client := server.Client()
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	editorToken, _, err := handler.IssueToken([]byte(cfg.JWTSecret), domain.Actor{Subject: "ops", Role: domain.RoleEditor}, time.Hour)
	require.NoError(t, err)

	call := func(method, path string, body any) *http.Response {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req, err := http.NewRequest(method, server.URL+path, &buf)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+editorToken)
		resp, err := client.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	// TEST 1: Build catalog
	resp := call(http.MethodPost, "/api/v1/projects", map[string]string{"name": "Launch"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var project domain.Project
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&project))

	var owners []int64
	for _, name := range []string{"alice", "bob", "carol"} {
		resp = call(http.MethodPost, "/api/v1/members", map[string]string{"name": name})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var created struct {
			Member domain.Member `json:"member"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
		owners = append(owners, created.Member.ID)
	}

	var links []int64
	for i, owner := range owners {
		resp = call(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/links", project.ID), map[string]any{
			"owner_id":   owner,
			"name":       fmt.Sprintf("link-%d", i),
			"target_url": "https://example.com",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var link domain.Link
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&link))
		links = append(links, link.ID)
	}

	// TEST 2: Concurrent redirects. bob's link gets 5, alice's 3, carol's 1.
	clicks := map[int64]int{links[0]: 3, links[1]: 5, links[2]: 1}
	var wg sync.WaitGroup
	for linkID, n := range clicks {
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(linkID int64, i int) {
				defer wg.Done()
				resp, err := client.Get(fmt.Sprintf("%s/go/%d?user=visitor-%d", server.URL, linkID, i))
				if assert.NoError(t, err) {
					_ = resp.Body.Close()
					assert.Equal(t, http.StatusFound, resp.StatusCode)
				}
			}(linkID, i)
		}
	}
	wg.Wait()

	// TEST 3: Stats come from the event log
	resp = call(http.MethodGet, fmt.Sprintf("/api/v1/projects/%d/stats", project.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats domain.ClickStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.EqualValues(t, 9, stats.TotalClicks)
	assert.EqualValues(t, 5, stats.UniqueUsers)

	// TEST 4: Leaderboard ranks by click sum
	resp = call(http.MethodGet, "/api/v1/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board struct {
		Data []domain.LeaderboardRow `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&board))
	require.Len(t, board.Data, 3)
	assert.Equal(t, []string{"bob", "alice", "carol"}, []string{
		board.Data[0].MemberName, board.Data[1].MemberName, board.Data[2].MemberName,
	})

	// TEST 5: Export (Dump)
	dumped, err := repo.Dump(context.Background())
	require.NoError(t, err)
	assert.Len(t, dumped, 3)
}
