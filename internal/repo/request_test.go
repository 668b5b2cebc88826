package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asehra/shuttle-pool/backend/internal/domain"
	"github.com/asehra/shuttle-pool/backend/internal/repo"
	"github.com/asehra/shuttle-pool/backend/testutil"
)

// newRequestRepo opens a transaction against the test database and returns
// a RequestRepo backed by it. The transaction rolls back when the test
// finishes, giving free per-test isolation.
func newRequestRepo(t *testing.T) repo.RequestRepo {
	t.Helper()
	pool := testutil.NewPool(t)

	tx, err := pool.Begin(context.Background())
	require.NoError(t, err, "begin transaction")

	t.Cleanup(func() {
		_ = tx.Rollback(context.Background())
	})

	return repo.NewRequestRepo(tx)
}

// requestFixture returns a domain.Request with sensible defaults. Instants
// use UTC: Postgres timestamptz normalizes zones anyway and the repo layer
// is zone-agnostic.
func requestFixture() domain.Request {
	return domain.Request{
		Owner:       "919900112233",
		Type:        domain.RoutePick,
		SlotLabel:   "09:30 AM",
		ScheduledAt: time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC),
		RouteMapURL: "https://www.google.com/maps/dir/?api=1&origin=x",
	}
}

func TestRequestRepo_Create(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	input := requestFixture()
	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID, "ID should be DB-generated")
	assert.Equal(t, input.Owner, got.Owner)
	assert.Equal(t, input.Type, got.Type)
	assert.Equal(t, input.SlotLabel, got.SlotLabel)
	assert.True(t, got.ScheduledAt.Equal(input.ScheduledAt), "ScheduledAt mismatch")
	assert.Equal(t, input.RouteMapURL, got.RouteMapURL)
	assert.False(t, got.Expired, "new requests start active")
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestRequestRepo_Update(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, requestFixture())
	require.NoError(t, err)

	created.SlotLabel = "09:50 AM"
	created.ScheduledAt = created.ScheduledAt.Add(20 * time.Minute)
	created.RouteMapURL = "https://www.google.com/maps/dir/?api=1&origin=y"

	updated, err := r.Update(ctx, created)

	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "09:50 AM", updated.SlotLabel)
	assert.True(t, updated.ScheduledAt.Equal(created.ScheduledAt))
	assert.Equal(t, created.RouteMapURL, updated.RouteMapURL)
	assert.False(t, updated.UpdatedAt.IsZero())
}

func TestRequestRepo_Update_NotFound(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	ghost := requestFixture()
	ghost.ID = uuid.New()

	_, err := r.Update(ctx, ghost)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRequestRepo_ListActiveByOwner(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	dayStart := time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	later := requestFixture()
	later.ScheduledAt = dayStart.Add(12 * time.Hour)
	later.Type = domain.RouteDrop
	later.SlotLabel = "04:30 PM"

	earlier := requestFixture()
	earlier.ScheduledAt = dayStart.Add(9 * time.Hour)

	otherOwner := requestFixture()
	otherOwner.Owner = "919900445566"
	otherOwner.ScheduledAt = dayStart.Add(9 * time.Hour)

	nextDay := requestFixture()
	nextDay.ScheduledAt = dayEnd // exactly on the exclusive bound

	for _, req := range []domain.Request{later, earlier, otherOwner, nextDay} {
		_, err := r.Create(ctx, req)
		require.NoError(t, err)
	}

	got, err := r.ListActiveByOwner(ctx, "919900112233", dayStart, dayEnd)

	require.NoError(t, err)
	require.Len(t, got, 2, "other owners and next-day rows are excluded")
	assert.True(t, got[0].ScheduledAt.Equal(earlier.ScheduledAt), "ascending order")
	assert.True(t, got[1].ScheduledAt.Equal(later.ScheduledAt))
}

func TestRequestRepo_ListActiveByOwner_SkipsExpired(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	created, err := r.Create(ctx, requestFixture())
	require.NoError(t, err)

	created.Expired = true
	_, err = r.Update(ctx, created)
	require.NoError(t, err)

	got, err := r.ListActiveByOwner(ctx, created.Owner,
		created.ScheduledAt.Add(-time.Hour), created.ScheduledAt.Add(time.Hour))

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRequestRepo_ListActiveDueWithin_WindowBounds(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	now := time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC)

	atNow := requestFixture()
	atNow.ScheduledAt = now // on the exclusive lower bound
	atEdge := requestFixture()
	atEdge.Owner = "919900445566"
	atEdge.ScheduledAt = now.Add(10 * time.Minute) // on the inclusive upper bound
	beyond := requestFixture()
	beyond.Owner = "919900778899"
	beyond.ScheduledAt = now.Add(11 * time.Minute)

	for _, req := range []domain.Request{atNow, atEdge, beyond} {
		_, err := r.Create(ctx, req)
		require.NoError(t, err)
	}

	got, err := r.ListActiveDueWithin(ctx, now, now.Add(10*time.Minute))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, atEdge.Owner, got[0].Owner)
}

func TestRequestRepo_ListActiveAt(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	at := time.Date(2025, 6, 2, 4, 0, 0, 0, time.UTC)

	a := requestFixture()
	a.ScheduledAt = at
	b := requestFixture()
	b.Owner = "919900445566"
	b.ScheduledAt = at
	other := requestFixture()
	other.Owner = "919900778899"
	other.ScheduledAt = at.Add(20 * time.Minute)

	for _, req := range []domain.Request{a, b, other} {
		_, err := r.Create(ctx, req)
		require.NoError(t, err)
	}

	got, err := r.ListActiveAt(ctx, at)

	require.NoError(t, err)
	require.Len(t, got, 2)
	owners := []string{got[0].Owner, got[1].Owner}
	assert.Contains(t, owners, a.Owner)
	assert.Contains(t, owners, b.Owner)
}

func TestRequestRepo_ExpireBefore(t *testing.T) {
	r := newRequestRepo(t)
	ctx := context.Background()

	cutoff := time.Date(2025, 6, 2, 5, 0, 0, 0, time.UTC)

	past := requestFixture()
	past.ScheduledAt = cutoff.Add(-time.Hour)
	atCutoff := requestFixture()
	atCutoff.Owner = "919900445566"
	atCutoff.ScheduledAt = cutoff // cutoff itself is not yet past due
	future := requestFixture()
	future.Owner = "919900778899"
	future.ScheduledAt = cutoff.Add(time.Hour)

	for _, req := range []domain.Request{past, atCutoff, future} {
		_, err := r.Create(ctx, req)
		require.NoError(t, err)
	}

	n, err := r.ExpireBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Re-running over already-expired rows changes nothing.
	n, err = r.ExpireBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	remaining, err := r.ListActiveDueWithin(ctx, cutoff.Add(-2*time.Hour), cutoff.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, remaining, 2)
}
