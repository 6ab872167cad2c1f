package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("does-not-exist.lua", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestShotDamage(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, 28, e.ShotDamage(20.7, 15)) // floor(20.7 + 7.5)
	assert.Equal(t, 15, e.ShotDamage(15, 0))
}

func TestDamageToPlayerBleedThrough(t *testing.T) {
	e := newTestEngine(t)
	// Heavy armor still lets 15% through.
	assert.Equal(t, 15, e.DamageToPlayer(100, 95))
	assert.Equal(t, 90, e.DamageToPlayer(100, 10))
	assert.Equal(t, 1, e.DamageToPlayer(10, 10))
}

func TestDamageToEnemyFloor(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, 1, e.DamageToEnemy(5, 10))
	assert.Equal(t, 38, e.DamageToEnemy(40, 2))
}

func TestExpCurve(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		level int
		want  int
	}{
		{1, 100},
		{2, 120},
		{3, 144},
		{5, 207}, // floor(100 * 1.2^4)
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, e.ExpToNext(tt.level), "level %d", tt.level)
	}
}
