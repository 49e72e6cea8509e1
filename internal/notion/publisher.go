// Package notion pushes scraped favorites into a Notion page and database.
package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
)

// pageAPI is the subset of notionapi.PageService the publisher uses.
type pageAPI interface {
	Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error)
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// blockAPI is the subset of notionapi.BlockService the publisher uses.
type blockAPI interface {
	AppendChildren(ctx context.Context, id notionapi.BlockID, req *notionapi.AppendBlockChildrenRequest) (*notionapi.AppendBlockChildrenResponse, error)
}

// Publisher writes favorites to a target page and, optionally, a database.
type Publisher struct {
	pages      pageAPI
	blocks     blockAPI
	pageID     string
	databaseID string
	log        zerolog.Logger
}

// NewPublisher creates a Publisher authenticated with token. databaseID may
// be empty, in which case only the page is updated.
func NewPublisher(token, pageID, databaseID string, log zerolog.Logger) *Publisher {
	client := notionapi.NewClient(notionapi.Token(token))
	return newPublisher(client.Page, client.Block, pageID, databaseID, log)
}

func newPublisher(pages pageAPI, blocks blockAPI, pageID, databaseID string, log zerolog.Logger) *Publisher {
	return &Publisher{
		pages:      pages,
		blocks:     blocks,
		pageID:     pageID,
		databaseID: databaseID,
		log:        log.With().Str("component", "notion").Logger(),
	}
}

// CheckAccess retrieves the target page to confirm the integration can see
// it, and logs the page title when there is one.
func (p *Publisher) CheckAccess(ctx context.Context) error {
	page, err := p.pages.Get(ctx, notionapi.PageID(p.pageID))
	if err != nil {
		p.log.Error().Err(err).Str("page_id", p.pageID).Msg("Failed to access page")
		return fmt.Errorf("failed to access page %s: %w", p.pageID, err)
	}

	p.log.Info().Str("page_id", p.pageID).Str("url", page.URL).Msg("Integration access confirmed")

	if title, ok := PageTitle(page); ok {
		p.log.Info().Str("title", title).Msg("Page title")
	} else {
		p.log.Warn().Msg("Page has no title or title format is unexpected")
	}
	return nil
}

// Publish appends one paragraph per favorite to the page and, when a
// database is configured, creates one row per favorite.
//
// Nothing is sent for an empty list.
func (p *Publisher) Publish(ctx context.Context, favorites []string) error {
	if len(favorites) == 0 {
		p.log.Warn().Msg("No favorites to publish")
		return nil
	}

	children := make([]notionapi.Block, 0, len(favorites))
	for _, fav := range favorites {
		children = append(children, paragraph(fav))
	}

	if _, err := p.blocks.AppendChildren(ctx, notionapi.BlockID(p.pageID), &notionapi.AppendBlockChildrenRequest{
		Children: children,
	}); err != nil {
		return fmt.Errorf("failed to update page %s: %w", p.pageID, err)
	}
	p.log.Info().Int("blocks", len(children)).Msg("Notion page updated successfully")

	if p.databaseID == "" {
		return nil
	}

	for _, fav := range favorites {
		if _, err := p.pages.Create(ctx, &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(p.databaseID),
			},
			Properties: notionapi.Properties{
				"Name": notionapi.TitleProperty{
					Title: []notionapi.RichText{richText(fav)},
				},
			},
		}); err != nil {
			return fmt.Errorf("failed to update database %s: %w", p.databaseID, err)
		}
	}
	p.log.Info().Int("rows", len(favorites)).Msg("Notion database updated successfully")

	return nil
}

// PageTitle extracts the plain-text title of a page.
func PageTitle(page *notionapi.Page) (string, bool) {
	if page == nil {
		return "", false
	}
	for _, prop := range page.Properties {
		var title []notionapi.RichText
		switch tp := prop.(type) {
		case *notionapi.TitleProperty:
			title = tp.Title
		case notionapi.TitleProperty:
			title = tp.Title
		default:
			continue
		}

		var sb strings.Builder
		for _, rt := range title {
			switch {
			case rt.PlainText != "":
				sb.WriteString(rt.PlainText)
			case rt.Text != nil:
				sb.WriteString(rt.Text.Content)
			}
		}
		if sb.Len() == 0 {
			return "", false
		}
		return sb.String(), true
	}
	return "", false
}

func richText(content string) notionapi.RichText {
	return notionapi.RichText{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}
}

func paragraph(content string) *notionapi.ParagraphBlock {
	return &notionapi.ParagraphBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeParagraph,
		},
		Paragraph: notionapi.Paragraph{
			RichText: []notionapi.RichText{richText(content)},
		},
	}
}
