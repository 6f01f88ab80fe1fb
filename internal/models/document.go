package models

import "fmt"

// BlockKind tags the variant of a ContentBlock.
type BlockKind int

const (
	// BlockHeading is a section heading.
	BlockHeading BlockKind = iota + 1
	// BlockParagraph is a plain paragraph.
	BlockParagraph
	// BlockBulletItem is a single bulleted list item.
	BlockBulletItem
)

// String returns the string representation of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockHeading:
		return "heading"
	case BlockParagraph:
		return "paragraph"
	case BlockBulletItem:
		return "bullet_item"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// MarshalText encodes the kind by name so API responses stay readable.
func (k BlockKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ContentBlock is one typed, order-significant element of a document body.
type ContentBlock struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// Heading builds a heading block.
func Heading(text string) ContentBlock {
	return ContentBlock{Kind: BlockHeading, Text: text}
}

// Paragraph builds a paragraph block.
func Paragraph(text string) ContentBlock {
	return ContentBlock{Kind: BlockParagraph, Text: text}
}

// BulletItem builds a bulleted list item block.
func BulletItem(text string) ContentBlock {
	return ContentBlock{Kind: BlockBulletItem, Text: text}
}

// DocumentPayload is everything a single create-document call needs.
// It is built fresh for each publish and never mutated afterwards.
type DocumentPayload struct {
	Title  string         `json:"title"`
	Blocks []ContentBlock `json:"blocks"`
}
