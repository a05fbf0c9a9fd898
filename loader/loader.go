package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/parley/engine/state"
)

// collector accumulates Lua definitions during file execution.
type collector struct {
	game      *lua.LTable
	quests    []rawDef
	npcs      []rawDef
	dialogues []rawDef
}

// Option configures Load.
type Option func(*options)

type options struct {
	log *log.Logger
}

// WithLogger reports validation warnings through logger.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) { o.log = logger }
}

// Load reads all .lua files from dir, compiles them into content
// definitions, validates references and graph shapes, and returns the
// immutable Defs. The Lua VM is discarded after loading.
func Load(dir string, opts ...Option) (*state.Defs, error) {
	defs, ve, err := Check(dir, opts...)
	if err != nil {
		return nil, err
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	return defs, nil
}

// Check loads dir like Load but always returns the full validation report,
// including warnings, alongside whatever definitions compiled. The error is
// non-nil only when the content could not be read or executed.
func Check(dir string, opts ...Option) (*state.Defs, *ValidationError, error) {
	o := options{log: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}

	// Discover .lua files.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("reading content directory %s: %w", dir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".lua") {
			luaFiles = append(luaFiles, e.Name())
		}
	}
	if len(luaFiles) == 0 {
		return nil, nil, fmt.Errorf("no .lua files found in %s", dir)
	}

	// Sort: game.lua first, rest alphabetical.
	luaFiles = sortedLuaFiles(luaFiles)

	// Create sandboxed VM.
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// Open safe libs only.
	openSafeLibs(L)

	// Sandbox: remove dangerous globals.
	sandbox(L)

	// Register API.
	coll := &collector{}
	registerAPI(L, coll)

	// Execute each file.
	for _, f := range luaFiles {
		path := filepath.Join(dir, f)
		if err := L.DoFile(path); err != nil {
			return nil, nil, fmt.Errorf("executing %s: %w", f, err)
		}
	}

	// Compile.
	ve := &ValidationError{}
	defs, err := compile(coll, ve)
	if err != nil {
		return nil, nil, fmt.Errorf("compiling content: %w", err)
	}

	// Validate.
	validate(defs, ve)

	for _, w := range ve.Warnings {
		o.log.Warn("content", "warning", w)
	}
	o.log.Debug("content loaded", "dir", dir, "quests", len(defs.Quests),
		"npcs", len(defs.NPCs), "dialogues", len(defs.Graphs))

	return defs, ve, nil
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	// Table library (table.insert, table.sort, etc.)
	lua.OpenTable(L)
	// String library (string.format, string.sub, etc.)
	lua.OpenString(L)
	// Math library (math.floor, math.max, etc.)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the content directory.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}

	// Content must load the same way every time.
	if mathTbl := L.GetGlobal("math"); mathTbl != lua.LNil {
		if tbl, ok := mathTbl.(*lua.LTable); ok {
			tbl.RawSetString("randomseed", lua.LNil)
			tbl.RawSetString("random", lua.LNil)
		}
	}
}
