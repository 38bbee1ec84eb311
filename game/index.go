package game

import (
	"sort"
	"strings"
)

// MatchIndex is one topic's dictionary from canonical answer string to the
// entities it recognizes. It is rebuilt whenever a member entity's compiled
// matches or the topic's exclusion list changes, and is read-only afterwards.
type MatchIndex struct {
	// Keys maps a canonical string to the sorted ids of all entities whose
	// compiled matches contain it.
	Keys map[string][]string
	// Exclusions and ExtraSymbols are the topic policy the index was built
	// with; Resolve applies the same policy to submitted text.
	Exclusions   []string
	ExtraSymbols string
}

// BuildIndex assembles the dictionary for one topic. Every compiled match is
// indexed twice: as-is and with all exclusion substrings stripped, so a match
// is found whether or not the player typed the excluded words.
func BuildIndex(matchesByEntity map[string][]string, exclusions []string, extraSymbols string) *MatchIndex {
	index := &MatchIndex{
		Keys:         make(map[string][]string),
		Exclusions:   exclusions,
		ExtraSymbols: extraSymbols,
	}
	members := make(map[string]map[string]struct{})
	add := func(key, id string) {
		if key == "" {
			return
		}
		if members[key] == nil {
			members[key] = make(map[string]struct{})
		}
		members[key][id] = struct{}{}
	}
	for id, matches := range matchesByEntity {
		for _, match := range matches {
			add(match, id)
			for _, word := range exclusions {
				match = strings.ReplaceAll(match, word, "")
			}
			add(match, id)
		}
	}
	for key, ids := range members {
		index.Keys[key] = sortedIDs(ids)
	}
	return index
}

// Resolve looks up free text against the index: the raw text is normalized
// with the topic policy, then matched exactly, then fuzzily. The fuzzy pass
// returns the union of entities over every key within Damerau-Levenshtein
// distance 1. An empty result means no match; more than one id signals an
// ambiguity the caller must resolve.
func (ix *MatchIndex) Resolve(raw string) []string {
	text := Normalize(raw, ix.Exclusions, ix.ExtraSymbols)
	if text == "" {
		return nil
	}
	if ids, ok := ix.Keys[text]; ok {
		return append([]string(nil), ids...)
	}
	union := make(map[string]struct{})
	for key, ids := range ix.Keys {
		if DamerauLevenshtein(key, text) <= 1 {
			for _, id := range ids {
				union[id] = struct{}{}
			}
		}
	}
	if len(union) == 0 {
		return nil
	}
	return sortedIDs(union)
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
