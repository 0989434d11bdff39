package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/viant/sesh/journal"
	"github.com/viant/sesh/service/dao"
)

func TestNew_RequiresBasePath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	service, err := New(t.TempDir())
	assert.NoError(t, err)

	assert.ErrorIs(t, service.Save(ctx, nil), dao.ErrNilEntity)
	assert.ErrorIs(t, service.Save(ctx, &journal.Entry{}), dao.ErrInvalidID)

	entry := &journal.Entry{
		ID:         "e1",
		SessionID:  "s1",
		Host:       "localhost",
		Command:    "echo hello",
		Stdout:     "hello\n",
		ExitCode:   0,
		StartedAt:  time.Unix(1000, 0).UTC(),
		EndedAt:    time.Unix(1001, 0).UTC(),
		DurationMs: 1000,
	}
	assert.NoError(t, service.Save(ctx, entry))

	loaded, err := service.Load(ctx, "e1")
	assert.NoError(t, err)
	assert.Equal(t, entry, loaded)

	_, err = service.Load(ctx, "missing")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	assert.NoError(t, service.Delete(ctx, "e1"))
	assert.ErrorIs(t, service.Delete(ctx, "e1"), dao.ErrNotFound)
}

func TestService_ListSkipsUnreadableFiles(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	service, err := New(baseDir)
	assert.NoError(t, err)

	entries := []*journal.Entry{
		{ID: "e1", SessionID: "s1", Command: "ls"},
		{ID: "e2", SessionID: "s2", Command: "make"},
	}
	for _, entry := range entries {
		assert.NoError(t, service.Save(ctx, entry))
	}
	assert.NoError(t, os.WriteFile(filepath.Join(baseDir, "garbage.json"), []byte("{not json"), 0o644))
	assert.NoError(t, os.WriteFile(filepath.Join(baseDir, "notes.txt"), []byte("ignored"), 0o644))

	all, err := service.List(ctx)
	assert.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := service.List(ctx, dao.NewParameter("SessionID", "s2"))
	assert.NoError(t, err)
	if assert.Len(t, filtered, 1) {
		assert.Equal(t, "e2", filtered[0].ID)
	}
}
