package http

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhi9818/libris/internal/library"
	"github.com/abhi9818/libris/internal/store/pebblestore"
)

type fakeStatusReader struct {
	status backlite.TaskStatus
	err    error
}

func (f *fakeStatusReader) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return f.status, f.err
}

func setupTasksRouter(t *testing.T, reader TaskStatusReader) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := pebblestore.New(filepath.Join(t.TempDir(), "library.db"), 0)
	ctrl := library.NewController(st, nil)
	require.NoError(t, ctrl.Initialize(context.Background()))
	t.Cleanup(func() { st.Close() })

	return NewRouter(RouterConfig{Library: ctrl, TaskStatus: reader})
}

func TestTaskStatusAPI(t *testing.T) {
	t.Run("reports a running task", func(t *testing.T) {
		router := setupTasksRouter(t, &fakeStatusReader{status: backlite.TaskStatusRunning})

		w := doJSON(t, router, http.MethodGet, "/api/tasks/abc123", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "abc123", got["id"])
		assert.Equal(t, "running", got["status"])
	})

	t.Run("unknown task is a 404", func(t *testing.T) {
		router := setupTasksRouter(t, &fakeStatusReader{status: backlite.TaskStatusNotFound})

		w := doJSON(t, router, http.MethodGet, "/api/tasks/nope", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("route is absent without a task client", func(t *testing.T) {
		router := setupTasksRouter(t, nil)

		w := doJSON(t, router, http.MethodGet, "/api/tasks/abc123", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
