package conversation

import "github.com/nathoo/parley/types"

// Listener receives presentation updates from the interpreter. Calls happen
// synchronously on the goroutine driving the interpreter.
type Listener interface {
	LineChanged(speaker, text string)
	ChoicesChanged(choices []types.Choice)
	ConversationEnded()
}

// ListenerFuncs adapts plain functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnLine    func(speaker, text string)
	OnChoices func(choices []types.Choice)
	OnEnded   func()
}

func (f ListenerFuncs) LineChanged(speaker, text string) {
	if f.OnLine != nil {
		f.OnLine(speaker, text)
	}
}

func (f ListenerFuncs) ChoicesChanged(choices []types.Choice) {
	if f.OnChoices != nil {
		f.OnChoices(choices)
	}
}

func (f ListenerFuncs) ConversationEnded() {
	if f.OnEnded != nil {
		f.OnEnded()
	}
}
