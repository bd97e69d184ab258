package permissions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreNotReadyUntilPublished(t *testing.T) {
	s := NewStore(nil)

	_, _, err := s.Current()
	require.ErrorIs(t, err, ErrNotReady)
	require.False(t, s.Status().Ready)

	select {
	case <-s.Ready():
		t.Fatal("ready channel closed before publication")
	default:
	}

	s.Replace(sampleCatalog())
	<-s.Ready()

	c, version, err := s.Current()
	require.NoError(t, err)
	require.EqualValues(t, 1, version)
	require.Equal(t, 4, c.Count())

	s.Replace(sampleCatalog())
	_, version, _ = s.Current()
	require.EqualValues(t, 2, version)
}

func TestStoreLoadWithoutLoader(t *testing.T) {
	_, err := NewStore(nil).Load(context.Background())
	require.ErrorIs(t, err, ErrLoaderNotConfigured)
}

func TestStoreFailedLoadKeepsPreviousCatalog(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	s := NewStore(func(ctx context.Context) (*Catalog, error) {
		calls++
		if calls == 1 {
			return sampleCatalog(), nil
		}
		return nil, boom
	})

	_, err := s.Load(context.Background())
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, boom)

	c, _, err := s.Current()
	require.NoError(t, err)
	require.Equal(t, 4, c.Count())
	require.Equal(t, "boom", s.Status().LastError)
}

func TestStoreInitialFailureSurfacesCause(t *testing.T) {
	boom := errors.New("unreachable")
	s := NewStore(func(ctx context.Context) (*Catalog, error) { return nil, boom })

	_, err := s.Load(context.Background())
	require.ErrorIs(t, err, boom)

	_, _, err = s.Current()
	require.ErrorIs(t, err, ErrNotReady)
	require.ErrorIs(t, err, boom)
}

func TestStoreWait(t *testing.T) {
	s := NewStore(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Wait(ctx)
	require.ErrorIs(t, err, ErrNotReady)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.Replace(sampleCatalog())
	}()
	c, err := s.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, c.Count())
}

func TestStatusSnapshot(t *testing.T) {
	s := NewStore(nil)
	s.Replace(sampleCatalog())

	snap := s.Status().Snapshot()
	require.True(t, snap.Ready)
	require.EqualValues(t, 1, snap.Version)
	require.Equal(t, 4, snap.Count)
	require.Equal(t, 1, snap.Provisioned)
}
