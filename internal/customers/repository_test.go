package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	first, last := SplitName("Maria Del Carmen Ruiz")
	assert.Equal(t, "Maria", first)
	assert.Equal(t, "Del Carmen Ruiz", last)

	first, last = SplitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Equal(t, "", last)

	first, last = SplitName("   ")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}

func TestFindOrCreate_NewCustomerIsInactive(t *testing.T) {
	repo := NewInMemoryRepository()

	c, created, err := repo.FindOrCreate(context.Background(), Draft{
		Email:     "Jane@Example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "5551234567",
	}, OriginBulkImport)
	require.NoError(t, err)

	assert.True(t, created)
	assert.False(t, c.Active)
	assert.Empty(t, c.CredentialHash)
	assert.Equal(t, OriginBulkImport, c.Origin)
	assert.Equal(t, "jane@example.com", c.Email)
}

func TestFindOrCreate_SameEmailResolvesToSameID(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	a, created, err := repo.FindOrCreate(ctx, Draft{Email: "a@b.com", FirstName: "A"}, OriginBulkImport)
	require.NoError(t, err)
	require.True(t, created)

	b, created, err := repo.FindOrCreate(ctx, Draft{Email: "A@B.COM", FirstName: "Other"}, OriginOperatorManual)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, a.ID, b.ID)
	// The original draft's fields win; later drafts only resolve.
	assert.Equal(t, "A", b.FirstName)
}

func TestFindOrCreate_RejectsEmptyDraft(t *testing.T) {
	repo := NewInMemoryRepository()

	_, _, err := repo.FindOrCreate(context.Background(), Draft{FirstName: "NoEmail"}, OriginBulkImport)
	assert.ErrorIs(t, err, ErrMissingEmail)

	_, _, err = repo.FindOrCreate(context.Background(), Draft{Email: "x@y.com"}, OriginBulkImport)
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestActivate_TransitionsInPlace(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	created, _, err := repo.FindOrCreate(ctx, Draft{Email: "pat@example.com", FirstName: "Pat"}, OriginOperatorManual)
	require.NoError(t, err)

	activated, err := repo.Activate(ctx, "PAT@example.com", "hash123")
	require.NoError(t, err)

	assert.Equal(t, created.ID, activated.ID, "activation must keep the record id")
	assert.True(t, activated.Active)
	assert.Equal(t, "hash123", activated.CredentialHash)
	assert.Equal(t, OriginOperatorManual, activated.Origin)

	_, err = repo.Activate(ctx, "pat@example.com", "hash456")
	assert.ErrorIs(t, err, ErrAlreadyActive)
}

func TestActivate_UnknownEmail(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.Activate(context.Background(), "ghost@example.com", "hash")
	assert.ErrorIs(t, err, ErrNotFound)
}
