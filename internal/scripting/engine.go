package scripting

import (
	_ "embed"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed combat_default.lua
var defaultCombat string

// Engine wraps a single gopher-lua VM holding the combat formulas.
// Accessed only from the game loop goroutine — no locks.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads the combat script at path.
// A missing file falls back to the embedded default so the server can
// run without a scripts directory.
func NewEngine(path string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	src := defaultCombat
	if raw, err := os.ReadFile(path); err == nil {
		src = string(raw)
		log.Info("loaded combat script", zap.String("path", path))
	} else if !os.IsNotExist(err) {
		vm.Close()
		return nil, fmt.Errorf("read combat script: %w", err)
	}
	if err := vm.DoString(src); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load combat script: %w", err)
	}

	e := &Engine{vm: vm, log: log}
	// Fail fast if the script is missing a formula.
	for _, fn := range []string{"shot_damage", "damage_to_player", "damage_to_enemy", "exp_to_next"} {
		if vm.GetGlobal(fn).Type() != lua.LTFunction {
			vm.Close()
			return nil, fmt.Errorf("combat script missing function %q", fn)
		}
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// ShotDamage computes a player projectile's damage from the weapon roll
// and the shooter's effective attack.
func (e *Engine) ShotDamage(roll float64, attack int) int {
	return e.callInt("shot_damage", lua.LNumber(roll), lua.LNumber(attack))
}

// DamageToPlayer computes damage an enemy projectile deals through the
// victim's effective defense.
func (e *Engine) DamageToPlayer(raw, defense int) int {
	return e.callInt("damage_to_player", lua.LNumber(raw), lua.LNumber(defense))
}

// DamageToEnemy computes damage a player projectile deals through the
// enemy's flat defense.
func (e *Engine) DamageToEnemy(raw, defense int) int {
	return e.callInt("damage_to_enemy", lua.LNumber(raw), lua.LNumber(defense))
}

// ExpToNext returns the exp required to advance past the given level.
func (e *Engine) ExpToNext(level int) int {
	return e.callInt("exp_to_next", lua.LNumber(level))
}

func (e *Engine) callInt(fn string, args ...lua.LValue) int {
	if err := e.vm.CallByParam(lua.P{
		Fn:      e.vm.GetGlobal(fn),
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("combat script call failed", zap.String("fn", fn), zap.Error(err))
		return 0
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := ret.(lua.LNumber)
	if !ok {
		e.log.Error("combat script returned non-number", zap.String("fn", fn))
		return 0
	}
	return int(n)
}
