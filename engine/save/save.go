// Package save implements JSON serialization and deserialization of a
// playthrough: quest ledger contents, consumed dialogues, and session state.
package save

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nathoo/parley/engine/state"
	"github.com/nathoo/parley/types"
)

// FormatVersion is the save layout version written by Save.
const FormatVersion = 1

// Quest statuses as written to disk. Untouched quests are not recorded.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

var (
	ErrWrongGame     = errors.New("save belongs to a different game")
	ErrFormatVersion = errors.New("unsupported save format")
	ErrUnknownQuest  = errors.New("save references unknown quest")
	ErrInvalidStatus = errors.New("invalid quest status")
)

// Ledger is the quest state persisted by a save.
type Ledger interface {
	Active() []types.Quest
	Completed() []types.Quest
	Restore(quests []types.Quest) error
}

// Pools is the consumed-dialogue state persisted by a save.
type Pools interface {
	Consumed() map[string][]string
	RestoreConsumed(consumed map[string][]string) error
}

// QuestRecord is one started quest.
type QuestRecord struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	Requirements []types.Requirement `json:"requirements,omitempty"`
}

// SaveData is the JSON-serializable save format. Quests are listed active
// first in start order, then completed in completion order.
type SaveData struct {
	Format     int                 `json:"format"`
	Version    string              `json:"version"`
	Game       string              `json:"game"`
	Turn       int                 `json:"turn"`
	Inventory  map[string]int      `json:"inventory"`
	Quests     []QuestRecord       `json:"quests"`
	Consumed   map[string][]string `json:"consumed"`
	CommandLog []string            `json:"command_log"`
}

// Snapshot captures the current playthrough.
func Snapshot(defs *state.Defs, sess *state.Session, ledger Ledger, pools Pools) *SaveData {
	sd := &SaveData{
		Format:     FormatVersion,
		Version:    defs.Game.Version,
		Game:       defs.Game.Title,
		Turn:       sess.Turn,
		Inventory:  map[string]int{},
		Quests:     []QuestRecord{},
		Consumed:   pools.Consumed(),
		CommandLog: append([]string{}, sess.CommandLog...),
	}
	for id, n := range sess.Inventory {
		if n > 0 {
			sd.Inventory[id] = n
		}
	}
	for _, q := range ledger.Active() {
		sd.Quests = append(sd.Quests, QuestRecord{ID: q.ID, Status: StatusActive, Requirements: q.Requirements})
	}
	for _, q := range ledger.Completed() {
		sd.Quests = append(sd.Quests, QuestRecord{ID: q.ID, Status: StatusCompleted, Requirements: q.Requirements})
	}
	return sd
}

// Save serializes the playthrough to JSON bytes.
func Save(defs *state.Defs, sess *state.Session, ledger Ledger, pools Pools) ([]byte, error) {
	return json.MarshalIndent(Snapshot(defs, sess, ledger, pools), "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrFormatVersion, sd.Format)
	}
	// Ensure maps are never nil after load.
	if sd.Inventory == nil {
		sd.Inventory = map[string]int{}
	}
	if sd.Quests == nil {
		sd.Quests = []QuestRecord{}
	}
	if sd.Consumed == nil {
		sd.Consumed = map[string][]string{}
	}
	if sd.CommandLog == nil {
		sd.CommandLog = []string{}
	}
	return &sd, nil
}

// Apply restores loaded save data. Quest names and descriptions come from
// the current content; counters come from the save, matched to the
// definition's requirements by position, kind and target. Nothing is
// modified if the save does not fit the content.
func Apply(sd *SaveData, defs *state.Defs, sess *state.Session, ledger Ledger, pools Pools) error {
	if sd.Game != "" && defs.Game.Title != "" && sd.Game != defs.Game.Title {
		return fmt.Errorf("%w: %q", ErrWrongGame, sd.Game)
	}

	quests := make([]types.Quest, 0, len(sd.Quests))
	for _, rec := range sd.Quests {
		def, ok := defs.Quests[rec.ID]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownQuest, rec.ID)
		}
		q := types.Quest{
			ID:           def.ID,
			Name:         def.Name,
			Description:  def.Description,
			Requirements: mergeRequirements(def.Requirements, rec.Requirements),
		}
		switch rec.Status {
		case StatusActive:
			q.Active = true
		case StatusCompleted:
			q.Completed = true
		default:
			return fmt.Errorf("%w: %q for quest %q", ErrInvalidStatus, rec.Status, rec.ID)
		}
		quests = append(quests, q)
	}

	if err := ledger.Restore(quests); err != nil {
		return err
	}
	if err := pools.RestoreConsumed(sd.Consumed); err != nil {
		return err
	}

	sess.Turn = sd.Turn
	sess.Inventory = map[string]int{}
	for id, n := range sd.Inventory {
		sess.Inventory[id] = n
	}
	sess.CommandLog = append([]string{}, sd.CommandLog...)
	return nil
}

func mergeRequirements(defReqs, saved []types.Requirement) []types.Requirement {
	out := make([]types.Requirement, len(defReqs))
	copy(out, defReqs)
	for i := range out {
		out[i].Current = 0
		if i < len(saved) && saved[i].Kind == out[i].Kind && saved[i].TargetID == out[i].TargetID {
			out[i].Current = saved[i].Current
		}
	}
	return out
}
