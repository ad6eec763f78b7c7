/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package lock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/sidetree-node/lock"
)

func TestVerifier_MaxOpsAllowed(t *testing.T) {
	v := lock.New(10, 1, 1)

	t.Run("no lock falls back to NoLockMax", func(t *testing.T) {
		require.Equal(t, uint64(lock.NoLockMax), v.MaxOpsAllowed(nil))
	})

	t.Run("lock derives a funded operation count", func(t *testing.T) {
		l := &lock.ValueTimeLock{AmountLocked: 1000}
		require.Equal(t, uint64(100), v.MaxOpsAllowed(l))
	})
}

func TestVerifier_Verify(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	v := lock.New(10, 1, 1)

	t.Run("no lock, within NoLockMax", func(t *testing.T) {
		require.NoError(t, v.Verify(nil, "writer1", now, lock.NoLockMax))
	})

	t.Run("no lock, exceeds NoLockMax", func(t *testing.T) {
		err := v.Verify(nil, "writer1", now, lock.NoLockMax+1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "exceeds the value time lock's funded maximum")
	})

	t.Run("valid lock within window and budget", func(t *testing.T) {
		l := &lock.ValueTimeLock{
			Owner:        "writer1",
			AmountLocked: 1000,
			LockTime:     now.Add(-time.Hour),
			UnlockTime:   now.Add(time.Hour),
		}

		require.NoError(t, v.Verify(l, "writer1", now, 100))
	})

	t.Run("owner mismatch", func(t *testing.T) {
		l := &lock.ValueTimeLock{
			Owner:      "writer1",
			LockTime:   now.Add(-time.Hour),
			UnlockTime: now.Add(time.Hour),
		}

		err := v.Verify(l, "writer2", now, 1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match writer")
	})

	t.Run("target time before lock time", func(t *testing.T) {
		l := &lock.ValueTimeLock{
			Owner:      "writer1",
			LockTime:   now.Add(time.Hour),
			UnlockTime: now.Add(2 * time.Hour),
		}

		err := v.Verify(l, "writer1", now, 1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "outside the value time lock's validity window")
	})

	t.Run("target time at or after unlock time", func(t *testing.T) {
		l := &lock.ValueTimeLock{
			Owner:      "writer1",
			LockTime:   now.Add(-2 * time.Hour),
			UnlockTime: now,
		}

		err := v.Verify(l, "writer1", now, 1)
		require.Error(t, err)
		require.Contains(t, err.Error(), "outside the value time lock's validity window")
	})

	t.Run("actual ops exceeds funded maximum", func(t *testing.T) {
		l := &lock.ValueTimeLock{
			Owner:        "writer1",
			AmountLocked: 100,
			LockTime:     now.Add(-time.Hour),
			UnlockTime:   now.Add(time.Hour),
		}

		err := v.Verify(l, "writer1", now, 11)
		require.Error(t, err)
		require.Contains(t, err.Error(), "exceeds the value time lock's funded maximum of 10")
	})
}
