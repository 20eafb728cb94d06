package checkpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docketlabs/go-docket/internal/domain"
)

func sampleState() *domain.WorkflowState {
	st := domain.NewWorkflowState(
		[]domain.Requirement{
			{Name: "Commercial Invoice"},
			{Name: "Bill of Lading"},
		},
		[]domain.Document{{Name: "invoice.pdf", Summary: "invoice"}},
	)
	_ = st.SelectNext()
	st.RecordAssignment(domain.AssignmentRecord{
		RequirementName:  "Commercial Invoice",
		MatchedDocuments: []string{"invoice.pdf"},
	})
	return st
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	st := sampleState()
	require.NoError(t, store.Save(ctx, "run-1", st))

	loaded, ok, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, st.Remaining, loaded.Remaining)
	assert.Equal(t, st.Assignments, loaded.Assignments)
	assert.Equal(t, st.TotalRequirements, loaded.TotalRequirements)
	assert.NoError(t, loaded.Validate())
}

func TestMemoryStoreLoadIsDetached(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	st := sampleState()
	require.NoError(t, store.Save(ctx, "run-1", st))

	// Mutating the live state after save must not affect the snapshot.
	st.Remaining = nil
	st.ProcessingComplete = true

	loaded, ok, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, loaded.Remaining, 1)
	assert.False(t, loaded.ProcessingComplete)

	// Mutating a loaded copy must not affect subsequent loads.
	loaded.Assignments = nil
	again, _, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, again.Assignments, 1)
}

func TestMemoryStoreSaveValidation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", sampleState()))
	assert.Error(t, store.Save(ctx, "run-1", nil))
}

func TestMemoryStoreSaveReplaces(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := sampleState()
	require.NoError(t, store.Save(ctx, "run-1", first))

	second := sampleState()
	_ = second.SelectNext()
	second.RecordAssignment(domain.AssignmentRecord{RequirementName: "Bill of Lading"})
	second.CheckCompletion()
	require.NoError(t, store.Save(ctx, "run-1", second))

	loaded, ok, err := store.Load(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, loaded.ProcessingComplete)
	assert.Len(t, loaded.Assignments, 2)
}

func TestMemoryStoreMissingAndDelete(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, "run-1", sampleState()))
	require.NoError(t, store.Delete(ctx, "run-1"))

	_, ok, err = store.Load(ctx, "run-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting a missing snapshot is not an error.
	assert.NoError(t, store.Delete(ctx, "run-1"))
}
