// Package effects applies the quest side effects a dialogue Line carries.
// Every effect is one ledger operation; no traversal logic lives here.
package effects

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nathoo/parley/engine/quest"
	"github.com/nathoo/parley/types"
)

// ErrUnknownQuest is returned when an effect names a quest with no definition.
var ErrUnknownQuest = errors.New("unknown quest")

// Ledger is the quest mutation surface effects act on.
type Ledger interface {
	Start(def types.QuestDef) (bool, error)
	ForceComplete(questID string) error
}

// Context carries the values available to text templates.
type Context struct {
	NPCID   string
	NPCName string
	Speaker string
}

// ForNode lists the side effects of showing n, in application order:
// start first, then complete.
func ForNode(n types.Node) []types.Effect {
	if n.Kind != types.NodeLine {
		return nil
	}
	var out []types.Effect
	if n.StartsQuest != "" {
		out = append(out, types.Effect{Type: types.EffectStartQuest, QuestID: n.StartsQuest})
	}
	if n.CompletesQuest != "" {
		out = append(out, types.Effect{Type: types.EffectCompleteQuest, QuestID: n.CompletesQuest})
	}
	return out
}

// Apply applies effects to the ledger in order. It returns the effects that
// changed quest state and diagnostics for those that were skipped. A missing
// quest definition or a ledger failure stops application and is returned.
func Apply(l Ledger, quests map[string]types.QuestDef, effs []types.Effect) ([]types.Effect, []string, error) {
	var applied []types.Effect
	var diags []string

	for _, eff := range effs {
		switch eff.Type {
		case types.EffectStartQuest:
			def, ok := quests[eff.QuestID]
			if !ok {
				return applied, diags, fmt.Errorf("start %q: %w", eff.QuestID, ErrUnknownQuest)
			}
			started, err := l.Start(def)
			if err != nil {
				return applied, diags, err
			}
			if started {
				applied = append(applied, eff)
			}

		case types.EffectCompleteQuest:
			if _, ok := quests[eff.QuestID]; !ok {
				return applied, diags, fmt.Errorf("complete %q: %w", eff.QuestID, ErrUnknownQuest)
			}
			err := l.ForceComplete(eff.QuestID)
			switch {
			case errors.Is(err, quest.ErrQuestNotActive):
				diags = append(diags, fmt.Sprintf("cannot complete quest %q: not active", eff.QuestID))
			case err != nil:
				return applied, diags, err
			default:
				applied = append(applied, eff)
			}

		default:
			diags = append(diags, fmt.Sprintf("unknown effect %q ignored", eff.Type))
		}
	}

	return applied, diags, nil
}

// Interpolate replaces template variables in dialogue text.
func Interpolate(text string, ctx Context) string {
	if !strings.Contains(text, "{") {
		return text
	}
	name := ctx.NPCName
	if name == "" {
		name = ctx.NPCID
	}
	r := strings.NewReplacer(
		"{npc}", ctx.NPCID,
		"{npc.name}", name,
		"{speaker}", ctx.Speaker,
	)
	return r.Replace(text)
}
