package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListQuery_Defaults(t *testing.T) {
	q, err := NewListQuery("", "", "")
	require.NoError(t, err)
	assert.Equal(t, Status(""), q.Status())
	assert.Equal(t, 1, q.Page())
	assert.Equal(t, 10, q.Limit())
	assert.Equal(t, 0, q.Offset())
}

func TestNewListQuery_StatusFilter(t *testing.T) {
	q, err := NewListQuery("all", "3", "20")
	require.NoError(t, err)
	assert.Equal(t, Status(""), q.Status())
	assert.Equal(t, 40, q.Offset())

	q, err = NewListQuery("pending", "", "")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, q.Status())
}

func TestNewListQuery_Rejects(t *testing.T) {
	for _, tc := range []struct{ status, page, limit string }{
		{"lost", "", ""},
		{"", "0", ""},
		{"", "x", ""},
		{"", "", "101"},
		{"", "", "-1"},
	} {
		_, err := NewListQuery(tc.status, tc.page, tc.limit)
		assert.Error(t, err, "%+v", tc)
	}
}

func TestListQuery_Pages(t *testing.T) {
	q, _ := NewListQuery("", "", "10")
	assert.Equal(t, 0, q.Pages(0))
	assert.Equal(t, 1, q.Pages(10))
	assert.Equal(t, 2, q.Pages(11))
}

func TestStatus_Targets(t *testing.T) {
	assert.False(t, StatusPending.IsTarget())
	for _, s := range []Status{StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.IsTarget(), s)
	}
	_, err := ParseStatus("CREATED")
	assert.Error(t, err)
}
