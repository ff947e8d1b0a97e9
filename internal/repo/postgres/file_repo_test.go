package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
	"github.com/ivankudzin/orgreviews/internal/migrations"
)

func TestListOrphansQueryGuardsOrganizationDocuments(t *testing.T) {
	assert.Contains(t, listOrphansQuery, "FROM organizations o WHERE o.documents::text LIKE")
	assert.Contains(t, listOrphansQuery, "u.approvement_file_id = f.id")
	assert.Contains(t, listOrphansQuery, "ANY (u.documents)")
}

// TestListOrphansKeepsOrganizationFiles needs a disposable database in
// ORGREVIEWS_TEST_POSTGRES_DSN.
func TestListOrphansKeepsOrganizationFiles(t *testing.T) {
	dsn := os.Getenv("ORGREVIEWS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ORGREVIEWS_TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, migrations.Run(ctx, pool, migrations.CommandUp, zap.NewNop()))

	files := NewFileRepo(pool)
	old := time.Now().Add(-30 * 24 * time.Hour).UTC()
	newFile := func(name string) model.File {
		created, err := files.Create(ctx, model.File{
			ID:          uuid.New(),
			Filename:    name,
			ContentType: "application/pdf",
			Size:        1,
			ObjectKey:   "test/" + uuid.NewString(),
			CreatedAt:   old,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = files.Delete(ctx, created.ID) })
		return created
	}
	charter := newFile("charter.pdf")
	stray := newFile("stray.pdf")

	documents, err := json.Marshal(map[string]string{"charter": charter.ID.String()})
	require.NoError(t, err)
	orgs := NewOrganizationRepo(pool)
	org, err := orgs.Create(ctx, model.Organization{Name: "Acme " + uuid.NewString(), Documents: documents})
	require.NoError(t, err)
	t.Cleanup(func() { _ = orgs.Delete(ctx, org.ID) })

	orphans, err := files.ListOrphans(ctx, time.Now(), 1000)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(orphans))
	for _, f := range orphans {
		ids[f.ID] = true
	}
	assert.False(t, ids[charter.ID], "file referenced by an organization must be kept")
	assert.True(t, ids[stray.ID])
}
