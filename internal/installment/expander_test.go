package installment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestExpand(t *testing.T) {
	purchase := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)

	t.Run("even split without billing cycle", func(t *testing.T) {
		got, err := Expand(200000, 10, purchase, nil)
		require.NoError(t, err)
		require.Len(t, got, 10)

		for i, inst := range got {
			assert.Equal(t, int64(20000), inst.AmountCents)
			assert.Equal(t, purchase.AddDate(0, i, 0), inst.Date)
		}
	})

	t.Run("purchase after closing day moves to next cycle", func(t *testing.T) {
		got, err := Expand(200000, 10, purchase, intPtr(15))
		require.NoError(t, err)

		// Purchased on the 20th with closing day 15: first charge lands one
		// month later, in the cycle that opened after the statement closed.
		assert.Equal(t, time.Date(2025, time.April, 20, 0, 0, 0, 0, time.UTC), got[0].Date)
		assert.Equal(t, time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC), got[1].Date)
	})

	t.Run("purchase before closing day stays in current cycle", func(t *testing.T) {
		early := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		got, err := Expand(90000, 3, early, intPtr(15))
		require.NoError(t, err)
		assert.Equal(t, early, got[0].Date)
	})

	t.Run("purchase exactly on closing day moves to next cycle", func(t *testing.T) {
		onClose := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
		got, err := Expand(90000, 3, onClose, intPtr(15))
		require.NoError(t, err)
		assert.Equal(t, onClose.AddDate(0, 1, 0), got[0].Date)
	})

	t.Run("month ends clamp instead of drifting", func(t *testing.T) {
		jan31 := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		got, err := Expand(90000, 3, jan31, nil)
		require.NoError(t, err)

		assert.Equal(t, jan31, got[0].Date)
		assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), got[1].Date)
		// The anchor day survives the short month.
		assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), got[2].Date)
	})

	t.Run("month end clamps after a cycle push too", func(t *testing.T) {
		jan31 := time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC)
		got, err := Expand(90000, 3, jan31, intPtr(15))
		require.NoError(t, err)

		assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), got[0].Date)
		assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), got[1].Date)
		assert.Equal(t, time.Date(2025, time.April, 30, 0, 0, 0, 0, time.UTC), got[2].Date)
	})

	t.Run("remainder is not redistributed", func(t *testing.T) {
		got, err := Expand(10000, 3, purchase, nil)
		require.NoError(t, err)

		var sum int64
		for _, inst := range got {
			assert.Equal(t, int64(3333), inst.AmountCents)
			sum += inst.AmountCents
		}
		// The cent of remainder stays unaccounted: sum == N * floor(T/N) <= T.
		assert.Equal(t, int64(9999), sum)
		assert.LessOrEqual(t, sum, int64(10000))
	})

	t.Run("count below minimum is a contract error", func(t *testing.T) {
		_, err := Expand(10000, 1, purchase, nil)
		assert.ErrorIs(t, err, ErrInvalidCount)
	})

	t.Run("count above maximum is a contract error", func(t *testing.T) {
		_, err := Expand(10000, 25, purchase, nil)
		assert.ErrorIs(t, err, ErrInvalidCount)
	})

	t.Run("non-positive total is rejected", func(t *testing.T) {
		_, err := Expand(0, 3, purchase, nil)
		assert.Error(t, err)
	})
}
