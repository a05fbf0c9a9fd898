// Package types defines the shared data structures for the Parley engine.
// It holds type definitions and constants only.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional
	Target string // optional
}

// RequirementKind identifies what a quest requirement counts.
type RequirementKind string

const (
	TalkToNPC   RequirementKind = "talk_to_npc"
	CollectItem RequirementKind = "collect_item"
)

// Requirement is one count-based condition a quest needs satisfied.
type Requirement struct {
	Kind     RequirementKind `json:"kind"`
	TargetID string          `json:"target"`
	Required int             `json:"required"`
	Current  int             `json:"current"`
}

// QuestDef is the static, authored definition of a quest.
type QuestDef struct {
	ID           string
	Name         string
	Description  string
	Requirements []Requirement
}

// Quest is a point-in-time view of a quest instance held by the ledger.
type Quest struct {
	ID           string
	Name         string
	Description  string
	Requirements []Requirement
	Active       bool
	Completed    bool
}

// ConditionKind names a visibility predicate over quest state.
type ConditionKind string

const (
	CondNone           ConditionKind = ""
	CondQuestCompleted ConditionKind = "quest_completed"
	CondQuestActive    ConditionKind = "quest_active"
	CondQuestNotActive ConditionKind = "quest_not_active"
)

// Condition gates the visibility of a Line or Response node.
type Condition struct {
	Kind    ConditionKind
	QuestID string
}

// NodeKind is the closed set of dialogue node variants.
type NodeKind string

const (
	NodeEntry    NodeKind = "entry"
	NodeLine     NodeKind = "line"
	NodeResponse NodeKind = "response"
	NodeTerminal NodeKind = "end"
)

// NodeID indexes a node inside its graph's arena.
type NodeID int

// NoNode is the NodeID used when no node applies.
const NoNode NodeID = -1

// PortExit is the continuation port every non-terminal node carries.
const PortExit = "exit"

// Node is a single unit of dialogue content or control.
// Which fields are meaningful depends on Kind.
type Node struct {
	ID             NodeID
	Name           string // authored key, unique within the graph
	Kind           NodeKind
	Speaker        string    // Line
	Text           string    // Line, Response (button label), Terminal (closing text)
	StartsQuest    string    // Line: quest id started when shown
	CompletesQuest string    // Line: quest id force-completed when shown
	Condition      Condition // Line, Response
}

// Edge joins an outbound port of one node to another node.
type Edge struct {
	From NodeID
	Port string
	To   NodeID
}

// NPCDef is an NPC with its ordered list of dialogue graph ids.
type NPCDef struct {
	ID        string
	Name      string
	Dialogues []string
}

// GameDef holds content metadata.
type GameDef struct {
	Title   string
	Author  string
	Version string
	Intro   string
}

// Choice is a button the player may select while a conversation runs.
type Choice struct {
	ID    string
	Label string
}

// Reserved choice ids for synthesized choices. Authored node names may not
// start with '@'.
const (
	ChoiceContinue = "@continue"
	ChoiceClose    = "@close"
)

// EffectType names a side effect applied while showing a Line.
type EffectType string

const (
	EffectStartQuest    EffectType = "start_quest"
	EffectCompleteQuest EffectType = "complete_quest"
)

// Effect is a single side effect applied during traversal.
type Effect struct {
	Type    EffectType
	QuestID string
}

// NotificationKind identifies a quest ledger notification.
type NotificationKind string

const (
	QuestStarted         NotificationKind = "quest_started"
	QuestProgressUpdated NotificationKind = "quest_progress_updated"
	QuestCompleted       NotificationKind = "quest_completed"
)

// Notification is emitted by the ledger after a mutation. Seq increases
// strictly in mutation order.
type Notification struct {
	Seq   uint64
	Kind  NotificationKind
	Quest Quest
}

// Result is the output of a single engine step.
type Result struct {
	Effects       []Effect
	Notifications []Notification
	Output        []string
	Choices       []Choice
	Diagnostics   []string
}
