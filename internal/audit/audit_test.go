package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campfire-games/lobby-backend/internal/game"
)

func TestExport_WritesFlatRecordSequence(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer store.Close()

	entries := []game.LogEntry{
		{Type: game.EvtJoin, At: time.Now(), Context: map[string]any{"user": "u01"}},
		{Type: game.EvtLeave, At: time.Now(), Context: map[string]any{"user": "u01"}},
		{Type: game.EvtToggle, At: time.Now()},
	}
	require.NoError(t, store.Export(context.Background(), "s1", "Echo Tango", entries))

	rows, err := store.db.Query(`SELECT seq, type FROM session_log WHERE session_id = 's1' ORDER BY seq`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var seq int
		var typ string
		require.NoError(t, rows.Scan(&seq, &typ))
		got = append(got, typ)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []string{"roster:join", "roster:leave", "access:toggle"}, got)
}
