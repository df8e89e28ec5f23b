package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/crm-autosync/internal/model"
	"github.com/sells-group/crm-autosync/internal/store"
)

type failingStore struct {
	store.Store
	getErr error
	putErr error
}

func (f *failingStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingStore) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Store.Put(ctx, key, value)
}

func TestLoad_AbsentIsZero(t *testing.T) {
	tr := New(store.NewMemory())
	assert.Equal(t, model.Metrics{}, tr.Load(context.Background()))
}

func TestRecordExtraction_SetsPending(t *testing.T) {
	ctx := context.Background()
	tr := New(store.NewMemory())

	tr.RecordExtraction(ctx, 10, 4)
	m := tr.RecordExtraction(ctx, 5, 2)

	assert.Equal(t, 15, m.TotalEmailsProcessed)
	assert.Equal(t, 6, m.TotalEntriesCreated)
	assert.Equal(t, 2, m.PendingReview, "pending reflects only the latest run")
}

func TestRecordPush(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		pending     int
		failed      int
		selected    int
		wantPending int
		wantErrors  int
	}{
		{"subtracts selection", 5, 1, 3, 2, 1},
		{"clamps at zero", 2, 0, 3, 0, 0},
		{"failures still leave queue", 3, 3, 3, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New(store.NewMemory())
			tr.RecordExtraction(ctx, 0, tt.pending)

			m := tr.RecordPush(ctx, tt.failed, tt.selected)
			assert.Equal(t, tt.wantPending, m.PendingReview)
			assert.Equal(t, tt.wantErrors, m.TotalErrors)
		})
	}
}

func TestPersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	tr := New(st)
	tr.RecordExtraction(ctx, 12, 4)
	tr.RecordPush(ctx, 1, 3)

	got := New(st).Load(ctx)
	assert.Equal(t, model.Metrics{
		TotalEmailsProcessed: 12,
		TotalEntriesCreated:  4,
		TotalErrors:          1,
		PendingReview:        1,
	}, got)
	assert.Equal(t, "25.0%", got.ErrorRate())
}

func TestLoad_ReadFailureDegrades(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), getErr: errors.New("disk gone")}
	tr := New(st)
	assert.Equal(t, model.Metrics{}, tr.Load(context.Background()))
}

func TestRecord_WriteFailureKeepsMemory(t *testing.T) {
	st := &failingStore{Store: store.NewMemory(), putErr: errors.New("quota")}
	tr := New(st)

	tr.RecordExtraction(context.Background(), 3, 3)
	assert.Equal(t, 3, tr.Snapshot().PendingReview)

	_, err := st.Store.Get(context.Background(), store.KeyMetrics)
	require.ErrorIs(t, err, store.ErrNotFound)
}
