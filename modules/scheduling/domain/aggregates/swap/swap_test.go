package swap

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func pending() Request {
	return New(uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New())
}

func TestNew(t *testing.T) {
	requestor, target := uuid.New(), uuid.New()
	r := New(uuid.New(), uuid.New(), uuid.New(), requestor, target)

	require.Equal(t, StatusPending, r.Status())
	require.Nil(t, r.DecidedBy())
	require.Nil(t, r.DecidedAt())
	require.True(t, r.IsRequestor(requestor))
	require.False(t, r.IsRequestor(target))
}

func TestApproveStampsDecision(t *testing.T) {
	r := pending()
	by, at := uuid.New(), time.Now()

	approved, err := r.Approve(by, at)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, approved.Status())
	require.Equal(t, by, *approved.DecidedBy())
	require.True(t, approved.DecidedAt().Equal(at))
	require.True(t, approved.UpdatedAt().Equal(at))
}

func TestRejectStampsDecision(t *testing.T) {
	r := pending()
	by, at := uuid.New(), time.Now()

	rejected, err := r.Reject(by, at)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, rejected.Status())
	require.Equal(t, by, *rejected.DecidedBy())
}

func TestCancelLeavesNoDecisionStamp(t *testing.T) {
	r := pending()

	canceled, err := r.Cancel(time.Now())
	require.NoError(t, err)
	require.Equal(t, StatusCanceled, canceled.Status())
	require.Nil(t, canceled.DecidedBy())
	require.Nil(t, canceled.DecidedAt())
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	approved, err := pending().Approve(uuid.New(), time.Now())
	require.NoError(t, err)
	rejected, err := pending().Reject(uuid.New(), time.Now())
	require.NoError(t, err)
	canceled, err := pending().Cancel(time.Now())
	require.NoError(t, err)

	for _, r := range []Request{approved, rejected, canceled} {
		_, err := r.Approve(uuid.New(), time.Now())
		require.ErrorIs(t, err, ErrAlreadyDecided)
		_, err = r.Reject(uuid.New(), time.Now())
		require.ErrorIs(t, err, ErrAlreadyDecided)
		_, err = r.Cancel(time.Now())
		require.ErrorIs(t, err, ErrAlreadyDecided)
	}
}

func TestTerminalGuardKeepsOriginalDecision(t *testing.T) {
	firstBy := uuid.New()
	approved, err := pending().Approve(firstBy, time.Now())
	require.NoError(t, err)

	same, err := approved.Reject(uuid.New(), time.Now())
	require.ErrorIs(t, err, ErrAlreadyDecided)
	require.Equal(t, StatusApproved, same.Status())
	require.Equal(t, firstBy, *same.DecidedBy())
}

func TestStatusIsTerminal(t *testing.T) {
	require.False(t, StatusPending.IsTerminal())
	require.True(t, StatusApproved.IsTerminal())
	require.True(t, StatusRejected.IsTerminal())
	require.True(t, StatusCanceled.IsTerminal())
}
