package selectx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOf_FirstSuccessWins(t *testing.T) {
	slow := func(ctx context.Context) (any, error) {
		select {
		case <-time.After(100 * time.Millisecond):
			return "slow", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	fast := func(ctx context.Context) (any, error) {
		select {
		case <-time.After(10 * time.Millisecond):
			return "fast", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	res, err := Of(context.Background(), slow, fast)
	require.NoError(t, err)
	require.Equal(t, 1, res.Index)
	require.Equal(t, "fast", res.Value)
}

func TestOf_LosersAreCancelled(t *testing.T) {
	loserCancelled := make(chan struct{}, 1)
	loser := func(ctx context.Context) (any, error) {
		<-ctx.Done()
		loserCancelled <- struct{}{}
		return nil, ctx.Err()
	}
	winner := func(ctx context.Context) (any, error) {
		return "won", nil
	}

	res, err := Of(context.Background(), loser, winner)
	require.NoError(t, err)
	require.Equal(t, "won", res.Value)

	select {
	case <-loserCancelled:
	case <-time.After(time.Second):
		t.Fatal("losing branch was never cancelled")
	}
}

func TestOf_AllFailReturnsAnError(t *testing.T) {
	errA := errors.New("branch a failed")
	errB := errors.New("branch b failed")

	branchA := func(ctx context.Context) (any, error) { return nil, errA }
	branchB := func(ctx context.Context) (any, error) { return nil, errB }

	_, err := Of(context.Background(), branchA, branchB)
	require.Error(t, err)
}

func TestOf_NoBranchesReturnsError(t *testing.T) {
	_, err := Of(context.Background())
	require.ErrorIs(t, err, ErrNoBranches)
}

func TestOf_OuterContextCancelPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	never := func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := Of(ctx, never, never)
	require.ErrorIs(t, err, context.Canceled)
}
