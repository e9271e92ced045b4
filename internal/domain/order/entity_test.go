package order

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder_FreezesTotal(t *testing.T) {
	items := []Item{
		{BookID: 1, Title: "A", UnitPrice: 1599, Quantity: 1},
		{BookID: 2, Title: "B", UnitPrice: 250, Quantity: 3},
	}
	o, err := NewOrder("ORD1", 9, "张三", "zs@example.com", "", items)
	require.NoError(t, err)

	assert.Equal(t, int64(2349), o.Total)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, 4, o.ItemCount())
}

func TestNewOrder_Invalid(t *testing.T) {
	_, err := NewOrder("ORD1", 1, "", "", "", nil)
	assert.Same(t, ErrInvalidOrderItems, err)

	_, err = NewOrder("ORD1", 1, "", "", "", []Item{{BookID: 1, UnitPrice: 100, Quantity: 0}})
	assert.Same(t, ErrInvalidQuantity, err)
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusPending, StatusDelivered, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusPending, false},
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.want, o.CanTransitionTo(tt.to))
		})
	}
}

func TestIsUserCancellable(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).IsUserCancellable())
	assert.True(t, (&Order{Status: StatusProcessing}).IsUserCancellable())
	assert.False(t, (&Order{Status: StatusShipped}).IsUserCancellable())
	assert.False(t, (&Order{Status: StatusCancelled}).IsUserCancellable())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, s)

	_, err = ParseStatus("refunded")
	assert.Same(t, ErrInvalidStatus, err)
}

func TestGenerateOrderNo(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.Local)
	a, b := GenerateOrderNo(at), GenerateOrderNo(at)

	assert.True(t, strings.HasPrefix(a, "ORD20240301153000"))
	assert.Len(t, a, len("ORD20240301153000")+8)
	assert.NotEqual(t, a, b)
}

func TestDayBounds(t *testing.T) {
	at := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	start, end := DayBounds(at)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestClone(t *testing.T) {
	o := &Order{ID: 1, Items: []Item{{BookID: 1, Quantity: 1}}}
	cp := o.Clone()
	cp.Items[0].Quantity = 5
	cp.Status = StatusCancelled

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.NotEqual(t, StatusCancelled, o.Status)
}
