package period

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func draft(t *testing.T) SchedulePeriod {
	t.Helper()
	p, err := New(uuid.New(), uuid.New(), day(2026, 11, 1), day(2026, 11, 7), "Week 45", uuid.New())
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	p := draft(t)
	require.Equal(t, StatusDraft, p.Status())
	require.Equal(t, 1, p.Version())
	require.False(t, p.IsLocked())
	require.Nil(t, p.PublishedAt())
	require.Nil(t, p.LockedAt())
}

func TestNewRejectsBadDateOrder(t *testing.T) {
	_, err := New(uuid.New(), uuid.New(), day(2026, 11, 7), day(2026, 11, 1), "", uuid.New())
	require.ErrorIs(t, err, ErrDateOrder)

	_, err = New(uuid.New(), uuid.New(), day(2026, 11, 1), day(2026, 11, 1), "", uuid.New())
	require.ErrorIs(t, err, ErrDateOrder)
}

func TestNewTrimsName(t *testing.T) {
	p, err := New(uuid.New(), uuid.New(), day(2026, 11, 1), day(2026, 11, 7), "  Week 45  ", uuid.New())
	require.NoError(t, err)
	require.Equal(t, "Week 45", p.Name())
}

func TestPublish(t *testing.T) {
	p := draft(t)
	by := uuid.New()
	at := time.Now()

	published, changed, err := p.Publish(by, at, "  go live  ")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, StatusPublished, published.Status())
	require.Equal(t, by, *published.PublishedBy())
	require.True(t, published.PublishedAt().Equal(at))
	require.Equal(t, "go live", published.PublishNotes())
}

func TestPublishIdempotent(t *testing.T) {
	p := draft(t)
	firstBy, firstAt := uuid.New(), time.Now()

	published, _, err := p.Publish(firstBy, firstAt, "first")
	require.NoError(t, err)

	again, changed, err := published.Publish(uuid.New(), firstAt.Add(time.Hour), "second")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, firstBy, *again.PublishedBy())
	require.True(t, again.PublishedAt().Equal(firstAt))
	require.Equal(t, "first", again.PublishNotes())
}

func TestPublishLockedRejected(t *testing.T) {
	p := draft(t)
	locked, _, err := p.Lock(uuid.New(), time.Now())
	require.NoError(t, err)

	_, changed, err := locked.Publish(uuid.New(), time.Now(), "")
	require.ErrorIs(t, err, ErrLocked)
	require.False(t, changed)
}

func TestLockIdempotent(t *testing.T) {
	p := draft(t)
	firstBy, firstAt := uuid.New(), time.Now()

	locked, changed, err := p.Lock(firstBy, firstAt)
	require.NoError(t, err)
	require.True(t, changed)
	require.True(t, locked.IsLocked())

	again, changed, err := locked.Lock(uuid.New(), firstAt.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, firstBy, *again.LockedBy())
	require.True(t, again.LockedAt().Equal(firstAt))
}

func TestLockFromPublishedKeepsPublishStamp(t *testing.T) {
	p := draft(t)
	published, _, err := p.Publish(uuid.New(), time.Now(), "notes")
	require.NoError(t, err)

	locked, changed, err := published.Lock(uuid.New(), time.Now())
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, StatusLocked, locked.Status())
	require.NotNil(t, locked.PublishedAt())
	require.Equal(t, "notes", locked.PublishNotes())
}

func TestCoversInclusiveBounds(t *testing.T) {
	p := draft(t)

	require.True(t, p.Covers(day(2026, 11, 1)))
	require.True(t, p.Covers(day(2026, 11, 4)))
	require.True(t, p.Covers(day(2026, 11, 7)))
	require.False(t, p.Covers(day(2026, 10, 31)))
	require.False(t, p.Covers(day(2026, 11, 8)))
}

func TestCoversIgnoresTimeOfDay(t *testing.T) {
	p := draft(t)
	require.True(t, p.Covers(time.Date(2026, 11, 7, 23, 30, 0, 0, time.UTC)))
}
