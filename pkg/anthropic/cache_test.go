package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCachedSystemBlocks(t *testing.T) {
	text := "You are a customer experience analyst. Here is the report data:\n\n# Dataset: Q3 Survey\n..."

	blocks := BuildCachedSystemBlocks(text)

	require.Len(t, blocks, 1)
	assert.Equal(t, text, blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestBuildCachedSystemBlocks_EmptyText(t *testing.T) {
	blocks := BuildCachedSystemBlocks("")

	require.Len(t, blocks, 1)
	assert.Equal(t, "", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestCachedSystemBlocks_ReuseAcrossCalls(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	systemBlocks := BuildCachedSystemBlocks("Narrative writing instructions (~5K tokens)...")

	// First call: cache creation
	req1 := MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		System:    systemBlocks,
		Messages:  []Message{{Role: "user", Content: "Report digest 1"}},
	}
	mc.On("CreateMessage", ctx, req1).Return(&MessageResponse{
		ID:         "msg_1",
		Content:    []ContentBlock{{Type: "text", Text: "Narrative 1"}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:              100,
			CacheCreationInputTokens: 5000,
			CacheReadInputTokens:     0,
		},
	}, nil)

	// Second call: cache hit
	req2 := MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		System:    systemBlocks,
		Messages:  []Message{{Role: "user", Content: "Report digest 2"}},
	}
	mc.On("CreateMessage", ctx, req2).Return(&MessageResponse{
		ID:         "msg_2",
		Content:    []ContentBlock{{Type: "text", Text: "Narrative 2"}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:              100,
			CacheCreationInputTokens: 0,
			CacheReadInputTokens:     5000,
		},
	}, nil)

	resp1, err := mc.CreateMessage(ctx, req1)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), resp1.Usage.CacheCreationInputTokens)
	assert.Equal(t, int64(0), resp1.Usage.CacheReadInputTokens)

	resp2, err := mc.CreateMessage(ctx, req2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp2.Usage.CacheCreationInputTokens)
	assert.Equal(t, int64(5000), resp2.Usage.CacheReadInputTokens)

	mc.AssertExpectations(t)
}
