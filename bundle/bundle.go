// Package bundle assembles the ordered initial conversation context loaded
// before dialogue starts. Block order is fixed: capabilities first, then
// prior memory, people, upcoming events and finally the caller's explicit
// request (closest to the turn the engine will act on). Blocks with no
// data are omitted entirely.
package bundle

import (
	"fmt"
	"strings"
)

// Tag identifies the source of a context block so the dialogue engine can
// distinguish where each piece of background information came from.
type Tag string

const (
	// TagSkills carries the capability/skills description.
	TagSkills Tag = "skills"
	// TagMemory carries the prior-memory summary.
	TagMemory Tag = "user_context"
	// TagPeople carries the contacts graph.
	TagPeople Tag = "people"
	// TagEvents carries the upcoming-events list.
	TagEvents Tag = "upcoming_events"
	// TagRequest carries the caller's explicit discussion topic.
	TagRequest Tag = "user_request"
)

// blockOrder is the invariant rendering order.
var blockOrder = []Tag{TagSkills, TagMemory, TagPeople, TagEvents, TagRequest}

// Block is one rendered context entry.
type Block struct {
	Tag  Tag
	Text string
}

// Bundle is the immutable ordered sequence of context blocks for one call.
type Bundle struct {
	blocks []Block
}

// Compose builds a bundle from the per-source texts, enforcing the fixed
// order and dropping empty sources.
func Compose(skills, memoryCtx, people, events, request string) *Bundle {
	texts := map[Tag]string{
		TagSkills:  skills,
		TagMemory:  memoryCtx,
		TagPeople:  people,
		TagEvents:  events,
		TagRequest: request,
	}
	b := &Bundle{}
	for _, tag := range blockOrder {
		if text := strings.TrimSpace(texts[tag]); text != "" {
			b.blocks = append(b.blocks, Block{Tag: tag, Text: text})
		}
	}
	return b
}

// Blocks returns a defensive copy of the ordered blocks.
func (b *Bundle) Blocks() []Block {
	out := make([]Block, len(b.blocks))
	copy(out, b.blocks)
	return out
}

// Empty reports whether no source produced any data.
func (b *Bundle) Empty() bool { return len(b.blocks) == 0 }

// Render serializes the bundle into the tagged text form handed to the
// dialogue engine.
func (b *Bundle) Render() string {
	var sb strings.Builder
	for i, block := range b.blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "<%s>\n%s\n</%s>", block.Tag, block.Text, block.Tag)
	}
	return sb.String()
}
