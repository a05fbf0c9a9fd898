package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/parley/config"
	"github.com/nathoo/parley/store/file"
	"github.com/nathoo/parley/store/redis"
	"github.com/nathoo/parley/store/sqlite"
)

const fullGame = "../../loader/testdata/full"

// execute runs the root command with args and stdin, returning stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	if _, ok := os.LookupEnv("PARLEY_STORE_PATH"); !ok {
		t.Setenv("PARLEY_STORE_PATH", t.TempDir())
	}

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "parley dev (commit none, built unknown)\n", out)
}

func TestPlay_Plain(t *testing.T) {
	out, err := execute(t, "talk guard\n1\nquests\n/quit\n", "play", "--plain", fullGame)
	require.NoError(t, err)
	assert.Contains(t, out, "Full Test Game v1.0 by Tester")
	assert.Contains(t, out, `Old Guard: "Halt. Nobody passes."`)
	assert.Contains(t, out, "[Quest started: Find the Gems]")
	assert.Contains(t, out, `Old Guard: "Bring me three gems."`)
	assert.Contains(t, out, "Collect gem: 0/3")
}

func TestPlay_DefaultCommand(t *testing.T) {
	out, err := execute(t, "/quit\n", "--plain", fullGame)
	require.NoError(t, err)
	assert.Contains(t, out, "- Old Guard: Ready to talk.")
	assert.Contains(t, out, "- Brenna the Smith: ...")
}

func TestPlay_ScriptAndPrompts(t *testing.T) {
	script := filepath.Join(t.TempDir(), "walkthrough.txt")
	require.NoError(t, os.WriteFile(script, []byte("# scripted\nlook\n"), 0o644))
	t.Setenv("PARLEY_PROMPTS_CAN_TALK", "Press E to Talk")

	out, err := execute(t, "", "play", "--script", script, fullGame)
	require.NoError(t, err)
	assert.Contains(t, out, "> look\n")
	assert.Contains(t, out, "- Old Guard: Press E to Talk")
}

func TestPlay_SaveSlotsUseConfiguredStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "saves.db")
	cfgPath := filepath.Join(t.TempDir(), "parley.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("store:\n  driver: sqlite\n"), 0o644))
	t.Setenv("PARLEY_STORE_PATH", dbPath)

	out, err := execute(t, "collect gem\n/save slot1\n/quit\n", "--config", cfgPath, "--plain", fullGame)
	require.NoError(t, err)
	assert.Contains(t, out, "Game saved to slot1.")

	s, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer s.Close()
	names, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"slot1"}, names)
}

func TestPlay_Errors(t *testing.T) {
	_, err := execute(t, "", "play", "--plain", "../../loader/testdata/invalid_refs")
	assert.ErrorContains(t, err, "loading game")

	_, err = execute(t, "", "play", "--plain", "--log-level", "loud", fullGame)
	assert.ErrorContains(t, err, "unknown log level")

	_, err = execute(t, "", "play", "--config", filepath.Join(t.TempDir(), "missing.yaml"), fullGame)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	out, err := execute(t, "", "validate", fullGame)
	require.NoError(t, err)
	assert.Contains(t, out, `response "leave" has no outbound connection`)
	assert.Contains(t, out, "ok (2 quests, 2 NPCs, 2 dialogues")

	out, err = execute(t, "", "validate", "../../loader/testdata/invalid_refs")
	require.Error(t, err)
	assert.Contains(t, out, `error: `)
	assert.Contains(t, out, `undefined dialogue "nowhere"`)
}

func TestGraph(t *testing.T) {
	out, err := execute(t, "", "graph", fullGame, "guard_intro")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, "class threaten hidden;")

	_, err = execute(t, "", "graph", fullGame, "nope")
	assert.ErrorContains(t, err, `no dialogue "nope"`)

	_, err = execute(t, "", "graph", fullGame)
	assert.Error(t, err)
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, config.Store{Driver: "file", Path: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, s)

	s, err = openStore(ctx, config.Store{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "saves.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Store{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = openStore(ctx, config.Store{Driver: "redis", RedisAddr: mr.Addr(), Prefix: "test:"})
	require.NoError(t, err)
	assert.IsType(t, &redis.Store{}, s)
	require.NoError(t, s.Save(ctx, "slot", []byte("{}")))
	assert.True(t, mr.Exists("test:slot"))
	require.NoError(t, s.Close())

	_, err = openStore(ctx, config.Store{Driver: "redis", RedisAddr: "127.0.0.1:1"})
	assert.ErrorContains(t, err, "connect redis store")

	_, err = openStore(ctx, config.Store{Driver: "tape"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestPlay_SampleWalkthrough(t *testing.T) {
	out, err := execute(t, "", "play", "--script", "../../games/gatehouse/walkthrough.txt", "../../games/gatehouse")
	require.NoError(t, err)

	for _, want := range []string{
		"[Quest started: Toll of Stones]",
		"[Quest completed: Toll of Stones]",
		"[Quest started: Report Back]",
		`Old Guard: "Good. Off with you, then."`,
		"[Quest completed: Report Back]",
		"Completed quests:",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "[Quest completed: Toll of Stones]"), strings.Index(out, "[Quest started: Report Back]"))
}
