package monitor_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"homedash/internal/connectivity"
	"homedash/internal/monitor"
)

func TestStatusBoardOverwrites(t *testing.T) {
	t.Parallel()

	board := monitor.NewStatusBoard()
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.FixedZone("CET", 3600))

	board.SetApp("nas", connectivity.Result{IsReachable: true, Method: connectivity.MethodFetch, Protocol: connectivity.ProtocolHTTP}, at)
	board.SetApp("nas", connectivity.Result{Method: connectivity.MethodFallback, Error: "All connectivity methods failed"}, at)

	status, ok := board.App("nas")
	require.True(t, ok)
	require.False(t, status.Reachable)
	require.Empty(t, status.Protocol)
	require.Equal(t, "All connectivity methods failed", status.Error)
	require.Equal(t, time.UTC, status.CheckedAt.Location())

	_, ok = board.App("missing")
	require.False(t, ok)
}

func TestStatusBoardReturnsCopies(t *testing.T) {
	t.Parallel()

	board := monitor.NewStatusBoard()
	board.SetApp("a", connectivity.Result{IsReachable: true}, time.Now())

	apps := board.Apps()
	delete(apps, "a")
	reach := board.Reachability()
	reach["b"] = true

	require.Equal(t, map[string]bool{"a": true}, board.Reachability())
}

func TestStatusBoardRetain(t *testing.T) {
	t.Parallel()

	board := monitor.NewStatusBoard()
	now := time.Now()
	board.SetApp("a", connectivity.Result{IsReachable: true}, now)
	board.SetApp("b", connectivity.Result{}, now)
	board.SetApp("c", connectivity.Result{IsReachable: true}, now)

	board.Retain([]string{"a", "c", "z"})
	require.Equal(t, map[string]bool{"a": true, "c": true}, board.Reachability())
}

func TestStatusBoardGeneral(t *testing.T) {
	t.Parallel()

	board := monitor.NewStatusBoard()
	require.False(t, board.General().IsOnline)
	require.Nil(t, board.General().LastCheckedAt)

	now := time.Now()
	board.SetGeneral(true, now)
	general := board.General()
	require.True(t, general.IsOnline)
	require.NotNil(t, general.LastCheckedAt)
	require.True(t, general.LastCheckedAt.Equal(now))
}

func TestStatusBoardSubscribeCoalesces(t *testing.T) {
	t.Parallel()

	board := monitor.NewStatusBoard()
	signals, cancel := board.Subscribe()

	board.SetGeneral(true, time.Now())
	board.SetApp("a", connectivity.Result{}, time.Now())

	<-signals
	select {
	case <-signals:
		t.Fatal("expected coalesced signal")
	default:
	}

	cancel()
	board.SetGeneral(false, time.Now())
	select {
	case <-signals:
		t.Fatal("signal after cancel")
	default:
	}
}
