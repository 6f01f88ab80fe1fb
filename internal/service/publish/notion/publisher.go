// Package notion publishes note documents as pages in a Notion database.
package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"

	"voice-notes-service/internal/models"
	"voice-notes-service/internal/service/publish"
)

const destination = "notion"

// maxTextLength is the largest content Notion accepts in one rich text object.
const maxTextLength = 2000

// Config holds Notion publisher configuration.
type Config struct {
	Token         string
	DatabaseID    string
	TitleProperty string // title column of the database
	Timeout       time.Duration
}

// DefaultConfig returns sensible default Notion settings.
func DefaultConfig() Config {
	return Config{
		TitleProperty: "Name",
		Timeout:       15 * time.Second,
	}
}

// Publisher implements publish.Publisher on top of the Notion pages API.
type Publisher struct {
	client *notionapi.Client
	cfg    Config
}

// New creates a Notion publisher. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) (*Publisher, error) {
	if cfg.Token == "" {
		return nil, publish.AuthFailure(destination, errors.New("notion token is not configured"))
	}
	if cfg.DatabaseID == "" {
		return nil, errors.New("notion database id is not configured")
	}
	def := DefaultConfig()
	if cfg.TitleProperty == "" {
		cfg.TitleProperty = def.TitleProperty
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	client := notionapi.NewClient(notionapi.Token(cfg.Token), notionapi.WithHTTPClient(httpClient))
	return &Publisher{client: client, cfg: cfg}, nil
}

// Name returns the destination name.
func (p *Publisher) Name() string {
	return destination
}

// Publish creates one page holding the payload title and blocks.
func (p *Publisher) Publish(ctx context.Context, payload models.DocumentPayload) error {
	children, err := toBlocks(payload.Blocks)
	if err != nil {
		return publish.Rejected(destination, err)
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(p.cfg.DatabaseID),
		},
		Properties: notionapi.Properties{
			p.cfg.TitleProperty: notionapi.TitleProperty{
				Title: richText(payload.Title),
			},
		},
		Children: children,
	}

	page, err := p.client.Page.Create(ctx, req)
	if err != nil {
		return classify(ctx, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("pageId", string(page.ID)).
		Str("title", payload.Title).
		Int("blocks", len(children)).
		Msg("Notion page created")
	return nil
}

func toBlocks(blocks []models.ContentBlock) ([]notionapi.Block, error) {
	out := make([]notionapi.Block, 0, len(blocks))
	for i, b := range blocks {
		text := richText(b.Text)
		switch b.Kind {
		case models.BlockHeading:
			out = append(out, &notionapi.Heading2Block{
				BasicBlock: basic(notionapi.BlockTypeHeading2),
				Heading2:   notionapi.Heading{RichText: text},
			})
		case models.BlockParagraph:
			out = append(out, &notionapi.ParagraphBlock{
				BasicBlock: basic(notionapi.BlockTypeParagraph),
				Paragraph:  notionapi.Paragraph{RichText: text},
			})
		case models.BlockBulletItem:
			out = append(out, &notionapi.BulletedListItemBlock{
				BasicBlock:       basic(notionapi.BlockTypeBulletedListItem),
				BulletedListItem: notionapi.ListItem{RichText: text},
			})
		default:
			return nil, fmt.Errorf("block %d: unsupported kind %s", i, b.Kind)
		}
	}
	return out, nil
}

func basic(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

// richText keeps a long text in one block by spreading it over several
// rich text objects of at most maxTextLength characters.
func richText(s string) []notionapi.RichText {
	var out []notionapi.RichText
	for len(s) > 0 {
		cut := len(s)
		if utf8.RuneCountInString(s) > maxTextLength {
			cut = 0
			for n := 0; n < maxTextLength; n++ {
				_, size := utf8.DecodeRuneInString(s[cut:])
				cut += size
			}
		}
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: s[:cut]},
		})
		s = s[cut:]
	}
	if out == nil {
		out = []notionapi.RichText{}
	}
	return out
}

// classify maps Notion API errors to publish failure kinds.
func classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return publish.Unavailable(destination, ctx.Err())
	}
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return &publish.Failure{
			Kind:        publish.StatusKind(apiErr.Status),
			Destination: destination,
			Err:         err,
		}
	}
	return publish.Unavailable(destination, err)
}
