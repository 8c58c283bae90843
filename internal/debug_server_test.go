package internal

import (
	"encoding/json"
	"io"
	"line-chat/contract"
	"line-chat/mocks"
	"line-chat/observability"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newDebugFixture(t *testing.T) (*httptest.Server, *observability.MonitoringManager) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	alice := mocks.NewMockPeer(ctrl)
	alice.EXPECT().ID().Return("a1").AnyTimes()
	alice.EXPECT().RemoteAddr().Return("10.0.0.1:4000").AnyTimes()
	joinedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	registry := mocks.NewMockIRegistry(ctrl)
	registry.EXPECT().Snapshot().Return([]contract.Member{{Peer: alice, Name: "<alice>", JoinedAt: joinedAt}}).AnyTimes()
	registry.EXPECT().Len().Return(1).AnyTimes()

	monitoring := observability.NewMonitoringManager(log)
	server := httptest.NewServer(NewDebugServer(log, "", registry, monitoring).Handler())
	t.Cleanup(server.Close)
	return server, monitoring
}

func TestDebugServer_Sessions(t *testing.T) {
	req := require.New(t)
	server, _ := newDebugFixture(t)

	resp, err := http.Get(server.URL + "/sessions")
	req.NoError(err)
	defer func() { _ = resp.Body.Close() }()

	req.Equal(http.StatusOK, resp.StatusCode)
	req.Equal("application/json", resp.Header.Get("Content-Type"))
	var sessions []SessionView
	req.NoError(json.NewDecoder(resp.Body).Decode(&sessions))
	req.Equal([]SessionView{{
		ID:         "a1",
		Name:       "<alice>",
		RemoteAddr: "10.0.0.1:4000",
		JoinedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}, sessions)
}

func TestDebugServer_Stats(t *testing.T) {
	req := require.New(t)
	server, monitoring := newDebugFixture(t)
	monitoring.IncrAccepted()
	monitoring.IncrWhispers()

	resp, err := http.Get(server.URL + "/stats")
	req.NoError(err)
	defer func() { _ = resp.Body.Close() }()

	var stats observability.MonitoringStats
	req.NoError(json.NewDecoder(resp.Body).Decode(&stats))
	req.Equal(1, stats.Sessions)
	req.Equal(uint64(1), stats.Accepted)
	req.Equal(uint64(1), stats.Whispers)
}

func TestDebugServer_Page_Escapes_Names(t *testing.T) {
	req := require.New(t)
	server, _ := newDebugFixture(t)

	resp, err := http.Get(server.URL + "/")
	req.NoError(err)
	defer func() { _ = resp.Body.Close() }()

	req.Equal(http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	page := string(body)
	req.Contains(page, "&lt;alice&gt;")
	req.NotContains(page, "<alice>")

	notFound, err := http.Get(server.URL + "/nope")
	req.NoError(err)
	_ = notFound.Body.Close()
	req.Equal(http.StatusNotFound, notFound.StatusCode)
}
