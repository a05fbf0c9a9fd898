// Package parser turns a typed command into a types.Intent using fixed
// word tables.
package parser

import (
	"slices"
	"strconv"
	"strings"

	"github.com/nathoo/parley/types"
)

var verbAliases = map[string]string{
	// Look around
	"l":      "look",
	"npcs":   "look",
	"who":    "look",
	"around": "look",

	// Talk
	"speak":    "talk",
	"chat":     "talk",
	"converse": "talk",
	"greet":    "talk",
	"ask":      "talk",

	// Choose a reply
	"continue": "choose",
	"pick":     "choose",
	"select":   "choose",
	"say":      "choose",
	"answer":   "choose",
	"reply":    "choose",
	"c":        "choose",
	"next":     "choose",
	"close":    "choose",

	// Leave a conversation
	"bye":      "leave",
	"goodbye":  "leave",
	"farewell": "leave",
	"exit":     "leave",

	// Collect items
	"take":   "collect",
	"get":    "collect",
	"grab":   "collect",
	"gather": "collect",
	"loot":   "collect",

	// Journal
	"journal": "quests",
	"j":       "quests",
	"log":     "quests",
	"quest":   "quests",

	// Other
	"inv": "inventory",
	"i":   "inventory",
	"z":   "wait",
	"?":   "help",
	"h":   "help",
}

var prepositions = map[string]bool{
	"on": true, "at": true, "to": true,
	"with": true, "in": true, "from": true,
	"about": true,
}

// phrases maps a two-word opening to the verb it stands for.
var phrases = map[[2]string]string{
	{"talk", "to"}:     "talk",
	{"talk", "with"}:   "talk",
	{"speak", "to"}:    "talk",
	{"speak", "with"}:  "talk",
	{"chat", "to"}:     "talk",
	{"chat", "with"}:   "talk",
	{"pick", "up"}:     "collect",
	{"walk", "away"}:   "leave",
	{"turn", "away"}:   "leave",
	{"look", "around"}: "look",
	{"say", "goodbye"}: "leave",
	{"say", "bye"}:     "leave",
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse reads input as a verb followed by an object and an optional target
// introduced by a preposition ("collect gem from chest"). A lone number is
// a reply choice.
func Parse(input string) types.Intent {
	words := strings.Fields(strings.ToLower(input))
	if len(words) == 0 {
		return types.Intent{}
	}
	if len(words) == 1 {
		if _, err := strconv.Atoi(words[0]); err == nil {
			return types.Intent{Verb: "choose", Object: words[0]}
		}
	}

	verb, rest := words[0], words[1:]
	if len(rest) > 0 {
		if v, ok := phrases[[2]string{verb, rest[0]}]; ok {
			verb, rest = v, rest[1:]
		}
	}
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}
	rest = stripArticles(rest)

	// Reply ids may contain prepositions.
	if verb == "choose" {
		return types.Intent{Verb: verb, Object: strings.Join(rest, " ")}
	}

	object, target := splitOnPreposition(rest)
	return types.Intent{Verb: verb, Object: object, Target: target}
}

func stripArticles(words []string) []string {
	return slices.DeleteFunc(slices.Clone(words), func(w string) bool { return articles[w] })
}

// splitOnPreposition returns the words before and after the first
// preposition. Without one, everything is the object.
func splitOnPreposition(words []string) (object, target string) {
	i := slices.IndexFunc(words, func(w string) bool { return prepositions[w] })
	if i < 0 {
		return strings.Join(words, " "), ""
	}
	return strings.Join(words[:i], " "), strings.Join(words[i+1:], " ")
}
