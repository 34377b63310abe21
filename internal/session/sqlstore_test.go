package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlStore, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { sqlStore.Close() })
	return map[string]Store{
		"sqlite": sqlStore,
		"mem":    NewMemStore(),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			rec := &Record{
				SessionID: "s1",
				Status:    StatusPaused,
				Question:  "Which Python version?",
				State:     json.RawMessage(`{"phase":"gathering"}`),
			}
			require.NoError(t, st.Save(rec))

			got, err := st.Load("s1")
			require.NoError(t, err)
			assert.Equal(t, StatusPaused, got.Status)
			assert.Equal(t, "Which Python version?", got.Question)
			assert.JSONEq(t, `{"phase":"gathering"}`, string(got.State))
			assert.NotEmpty(t, got.CreatedAt)
		})
	}
}

func TestLoadMissing(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Load("nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSaveUpsertsExisting(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(&Record{SessionID: "s1", Status: StatusRunning, State: json.RawMessage(`{}`)}))
			require.NoError(t, st.Save(&Record{SessionID: "s1", Status: StatusComplete, State: json.RawMessage(`{"done":true}`)}))

			got, err := st.Load("s1")
			require.NoError(t, err)
			assert.Equal(t, StatusComplete, got.Status)

			all, err := st.List()
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestBeginResumeTransitions(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(&Record{
				SessionID: "s1",
				Status:    StatusPaused,
				Question:  "q",
				State:     json.RawMessage(`{}`),
			}))

			got, err := st.BeginResume("s1")
			require.NoError(t, err)
			assert.Equal(t, StatusRunning, got.Status)

			// A second resume while running is rejected.
			_, err = st.BeginResume("s1")
			assert.ErrorIs(t, err, ErrBusy)
		})
	}
}

func TestBeginResumeCompletedRejected(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(&Record{SessionID: "s1", Status: StatusComplete, State: json.RawMessage(`{}`)}))

			_, err := st.BeginResume("s1")
			assert.ErrorIs(t, err, ErrCompleted)
		})
	}
}

func TestBeginResumeMissing(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.BeginResume("ghost")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, st := range openTestStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Save(&Record{SessionID: "s1", Status: StatusRunning, State: json.RawMessage(`{}`)}))
			require.NoError(t, st.Delete("s1"))
			_, err := st.Load("s1")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
