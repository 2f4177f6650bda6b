package floor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skyrisegames/skytower/server/internal/domain/business"
)

func TestFloorLifecycle(t *testing.T) {
	f := New(5)
	assert.Equal(t, 5, f.Number)
	assert.False(t, f.Occupied)
	assert.Equal(t, 100.0, f.Maintenance)

	b := business.New(business.TypeRetail, 5)
	f.Assign(b)
	assert.True(t, f.Occupied)
	assert.Same(t, b, f.Business)

	f.Traffic = 12
	f.Clear()
	assert.False(t, f.Occupied)
	assert.Nil(t, f.Business)
	assert.Zero(t, f.Traffic)
}
