package server

import (
	"fmt"
	"strings"

	"taleweaver/pkg/arc"
	"taleweaver/pkg/schema"
)

const narratorPrompt = `You are the narrator and every non-player character of an interactive roleplay. Stay in the story at all times and never speak or act for the user.

**Rules:**
- Write in third person, present tense, one to three short paragraphs.
- When a character speaks, start a new line in the form Name: "line".
- Use the established characters whenever possible. New side characters must be given a real first name, never a label like "Man 1" or "Cashier".
- Keep the tone and the rules of the scenario.
- Move the story forward gradually and end on something the user can react to.`

const classifyPrompt = `You judge how a roleplay participant's latest action relates to the narrative steps the author planned. For every pending step listed, classify the action as:
- "aligned": it moves toward the step or keeps it possible.
- "soft_resistance": it hesitates, delays or mildly steers away from the step.
- "hard_resistance": it clearly refuses, contradicts or makes the step impossible.

Return only a JSON object: {"classifications":[{"step_id":"...","classification":"...","reason":"..."}]}. Include every pending step exactly once.`

const draftPrompt = `You are a scenario designer for an interactive roleplay platform. Expand the user's idea into a complete, playable scenario.

**Rules:**
- Characters must have real names and distinct motivations.
- The opening is written by the narrator and ends with a situation the user must respond to.
- Arc steps are short imperative milestones, in order.
- Tags are lowercase single words or short phrases.
- Output only the JSON object.`

const memoriesPrompt = `You extract long-term memories from a roleplay transcript. A memory is a durable fact that later scenes should respect: relationships, promises, injuries, possessions, revealed secrets, decisions.

**Rules:**
- One self-contained sentence per memory, third person, using character names.
- Skip small talk, descriptions of the moment and anything already listed as known.
- Output only the JSON object: {"memories":[{"text":"...","importance":"low|medium|high"}]}.`

const rewritePrompt = `You are a careful editor for roleplay messages. Rewrite the message following the instruction while preserving names, facts and the speaker format "Name: line". Output only the rewritten message, with no commentary or markdown fences.`

func buildNarratorPrompt(sc schema.Scenario) string {
	var b strings.Builder
	b.WriteString(narratorPrompt)
	b.WriteString("\n\n**Scenario**\n")
	if sc.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", sc.Title)
	}
	if sc.Premise != "" {
		fmt.Fprintf(&b, "Premise: %s\n", sc.Premise)
	}
	if sc.Setting != "" {
		fmt.Fprintf(&b, "Setting: %s\n", sc.Setting)
	}
	if sc.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", sc.Tone)
	}
	if sc.UserRole != "" {
		fmt.Fprintf(&b, "The user plays: %s\n", sc.UserRole)
	}
	for _, r := range sc.Rules {
		if r = strings.TrimSpace(r); r != "" {
			fmt.Fprintf(&b, "Rule: %s\n", r)
		}
	}
	if len(sc.Characters) > 0 {
		b.WriteString("\n**Characters**\n")
		for _, ch := range sc.Characters {
			fmt.Fprintf(&b, "- %s", ch.Name)
			if ch.Role != "" {
				fmt.Fprintf(&b, " (%s)", ch.Role)
			}
			if ch.Personality != "" {
				fmt.Fprintf(&b, ": %s", ch.Personality)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func buildClassifyInput(steps []arc.Step, recent []schema.Turn, message string) string {
	var b strings.Builder
	b.WriteString("Pending steps:\n")
	for _, st := range steps {
		fmt.Fprintf(&b, "- step_id=%q: %s\n", st.ID, st.Description)
	}
	if len(recent) > 0 {
		b.WriteString("\nRecent conversation:\n")
		for _, t := range recent {
			fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
		}
	}
	fmt.Fprintf(&b, "\nLatest user action:\n%s\n", message)
	return b.String()
}

func buildRewritePrompt(rules, instruction string) string {
	var b strings.Builder
	b.WriteString(rewritePrompt)
	if rules = strings.TrimSpace(rules); rules != "" {
		b.WriteString("\n\nScenario rules:\n")
		b.WriteString(rules)
	}
	b.WriteString("\n\nInstruction:\n")
	b.WriteString(strings.TrimSpace(instruction))
	return b.String()
}
