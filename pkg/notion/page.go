package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

const (
	// Notion caps rich text content at 2000 characters per block.
	maxBlockTextLen = 2000
	// Notion caps children at 100 blocks per create/append request.
	maxChildrenPerRequest = 100
)

// PublishInput holds everything needed to publish one rendered report.
type PublishInput struct {
	Title               string
	Dataset             string
	RunID               string
	RiskScore           float64
	RecommendationScore float64
	Markdown            string
}

// PublishReport creates a page in the report database carrying the rendered
// markdown as page content. Long reports are appended in batches of 100
// blocks. Returns the created page ID.
func PublishReport(ctx context.Context, c Client, dbID string, in PublishInput) (string, error) {
	if strings.TrimSpace(in.Markdown) == "" {
		return "", eris.New("notion: empty report body")
	}

	blocks := MarkdownBlocks(in.Markdown)

	first := blocks
	var rest []notionapi.Block
	if len(blocks) > maxChildrenPerRequest {
		first = blocks[:maxChildrenPerRequest]
		rest = blocks[maxChildrenPerRequest:]
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: buildReportProperties(in),
		Children:   first,
	}

	page, err := c.CreatePage(ctx, req)
	if err != nil {
		return "", eris.Wrap(err, "notion: publish report")
	}
	pageID := string(page.ID)

	for len(rest) > 0 {
		batch := rest
		if len(batch) > maxChildrenPerRequest {
			batch = rest[:maxChildrenPerRequest]
		}
		rest = rest[len(batch):]
		if err := c.AppendBlocks(ctx, pageID, batch); err != nil {
			return pageID, eris.Wrap(err, "notion: append report blocks")
		}
	}

	return pageID, nil
}

// buildReportProperties maps the publish input onto the report database
// schema: Name (title), Dataset, Run ID, Risk Score, Recommendation Score.
func buildReportProperties(in PublishInput) notionapi.Properties {
	return notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(in.Title),
		},
		"Dataset": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(in.Dataset),
		},
		"Run ID": notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(in.RunID),
		},
		"Risk Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: in.RiskScore,
		},
		"Recommendation Score": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: in.RecommendationScore,
		},
	}
}

// MarkdownBlocks converts rendered report markdown to Notion blocks.
// Headings, bullets and dividers map to their block types; everything else
// accumulates into paragraphs. Paragraphs longer than the 2000-character
// limit split across consecutive blocks.
func MarkdownBlocks(markdown string) []notionapi.Block {
	var blocks []notionapi.Block
	var para []string

	flush := func() {
		if len(para) == 0 {
			return
		}
		text := strings.Join(para, "\n")
		para = nil
		for _, chunk := range splitText(text, maxBlockTextLen) {
			blocks = append(blocks, paragraphBlock(chunk))
		}
	}

	for _, line := range strings.Split(markdown, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "### "):
			flush()
			blocks = append(blocks, headingBlock(strings.TrimPrefix(trimmed, "### "), 3))
		case strings.HasPrefix(trimmed, "## "):
			flush()
			blocks = append(blocks, headingBlock(strings.TrimPrefix(trimmed, "## "), 2))
		case strings.HasPrefix(trimmed, "# "):
			flush()
			blocks = append(blocks, headingBlock(strings.TrimPrefix(trimmed, "# "), 1))
		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* "):
			flush()
			blocks = append(blocks, bulletBlock(strings.TrimSpace(trimmed[2:])))
		case trimmed == "---":
			flush()
			blocks = append(blocks, dividerBlock())
		default:
			para = append(para, trimmed)
		}
	}
	flush()

	return blocks
}

// splitText chunks s into pieces of at most limit runes.
func splitText(s string, limit int) []string {
	runes := []rune(s)
	if limit <= 0 || len(runes) <= limit {
		return []string{s}
	}
	var chunks []string
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}

func basicBlock(t notionapi.BlockType) notionapi.BasicBlock {
	return notionapi.BasicBlock{Object: notionapi.ObjectTypeBlock, Type: t}
}

func paragraphBlock(text string) notionapi.Block {
	return notionapi.ParagraphBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeParagraph),
		Paragraph:  notionapi.Paragraph{RichText: richText(text)},
	}
}

func headingBlock(text string, level int) notionapi.Block {
	switch level {
	case 1:
		return notionapi.Heading1Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading1),
			Heading1:   notionapi.Heading{RichText: richText(text)},
		}
	case 3:
		return notionapi.Heading3Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading3),
			Heading3:   notionapi.Heading{RichText: richText(text)},
		}
	default:
		return notionapi.Heading2Block{
			BasicBlock: basicBlock(notionapi.BlockTypeHeading2),
			Heading2:   notionapi.Heading{RichText: richText(text)},
		}
	}
}

func bulletBlock(text string) notionapi.Block {
	return notionapi.BulletedListItemBlock{
		BasicBlock:       basicBlock(notionapi.BlockTypeBulletedListItem),
		BulletedListItem: notionapi.ListItem{RichText: richText(text)},
	}
}

func dividerBlock() notionapi.Block {
	return notionapi.DividerBlock{
		BasicBlock: basicBlock(notionapi.BlockTypeDivider),
		Divider:    notionapi.Divider{},
	}
}
