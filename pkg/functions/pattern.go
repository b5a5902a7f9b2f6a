package functions

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// patternOrder fixes the evaluation order of the keyword table so
// classification is deterministic for skills matching more than one category.
var patternOrder = []PatternType{
	PatternFileManagement,
	PatternDataTransform,
	PatternSearchAnalyze,
	PatternCommunication,
	PatternCRUD,
}

// patternKeywords maps each category to skill-id substrings that indicate it.
var patternKeywords = map[PatternType][]string{
	PatternFileManagement: {"fs_", "file", "read", "write", "copy", "move", "dir", "folder", "upload", "download"},
	PatternDataTransform:  {"transform", "convert", "parse", "extract", "format", "encode", "decode", "merge"},
	PatternSearchAnalyze:  {"search", "query", "analyze", "find", "filter", "inspect", "scan", "lookup"},
	PatternCommunication:  {"send", "email", "notify", "message", "post", "publish", "slack", "sms"},
	PatternCRUD:           {"create", "update", "delete", "insert", "upsert", "record", "db_", "sql"},
}

// titleVerbs maps each category to the verb prefix used for generated titles.
var titleVerbs = map[PatternType]string{
	PatternCRUD:           "Manage",
	PatternDataTransform:  "Transform",
	PatternSearchAnalyze:  "Analyze",
	PatternCommunication:  "Coordinate",
	PatternFileManagement: "Organize",
	PatternGeneral:        "Run",
}

// ClassifySkill maps a single skill id to its pattern category, or
// PatternGeneral when no keyword matches.
func ClassifySkill(skillID string) PatternType {
	id := strings.ToLower(skillID)
	for _, pattern := range patternOrder {
		for _, keyword := range patternKeywords[pattern] {
			if strings.Contains(id, keyword) {
				return pattern
			}
		}
	}
	return PatternGeneral
}

// ClassifyPattern classifies a step sequence by majority vote over its skills.
// Ties and fully unclassified sequences fall back to PatternGeneral.
func ClassifyPattern(steps []Step) PatternType {
	votes := make(map[PatternType]int)
	for _, step := range steps {
		if pattern := ClassifySkill(step.SkillID); pattern != PatternGeneral {
			votes[pattern]++
		}
	}
	if len(votes) == 0 {
		return PatternGeneral
	}

	winner := PatternGeneral
	best, tied := 0, false
	for _, pattern := range patternOrder {
		count := votes[pattern]
		if count > best {
			winner, best, tied = pattern, count, false
		} else if count == best && count > 0 {
			tied = true
		}
	}
	if tied {
		return PatternGeneral
	}
	return winner
}

var titleCaser = cases.Title(language.English)

// goalStopwords are dropped from the front of a goal before extracting the
// noun phrase used in generated titles.
var goalStopwords = map[string]bool{
	"please": true, "can": true, "could": true, "you": true, "i": true,
	"want": true, "need": true, "to": true, "the": true, "a": true, "an": true,
	"my": true, "me": true, "help": true, "with": true, "for": true,
	"create": true, "make": true, "get": true, "find": true, "list": true,
	"read": true, "extract": true, "send": true, "search": true,
	"analyze": true, "organize": true, "update": true, "delete": true,
	"transform": true, "run": true, "do": true, "and": true, "then": true,
}

// GenerateTitle builds a readable title from the pattern's verb prefix and a
// noun phrase extracted from the goal text.
func GenerateTitle(pattern PatternType, goalText string, steps []Step) string {
	verb := titleVerbs[pattern]
	if verb == "" {
		verb = titleVerbs[PatternGeneral]
	}

	phrase := extractNounPhrase(goalText, 5)
	if phrase == "" {
		return fmt.Sprintf("%s %d-step workflow", verb, len(steps))
	}
	return verb + " " + titleCaser.String(phrase)
}

// extractNounPhrase strips leading stopwords and imperative verbs from the
// goal and keeps up to maxWords of what remains.
func extractNounPhrase(goalText string, maxWords int) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', ':', ';', '"', '\'':
			return ' '
		}
		return r
	}, strings.ToLower(goalText))

	words := strings.Fields(cleaned)
	start := 0
	for start < len(words) && goalStopwords[words[start]] {
		start++
	}

	end := start + maxWords
	if end > len(words) {
		end = len(words)
	}
	return strings.Join(words[start:end], " ")
}
