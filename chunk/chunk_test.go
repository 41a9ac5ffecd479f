package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderJoinsNonEmptyParts(t *testing.T) {
	assert.Equal(t, "Criminal Code | s 91", Header("Criminal Code", "", "s 91"))
	assert.Equal(t, "Criminal Code", Header("Criminal Code", "   "))
	assert.Equal(t, "", Header("", "  "))
}

func drain(t *testing.T, ch <-chan Chunk) []Chunk {
	t.Helper()
	var out []Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestChunkSmallContentIsSingleChunkWithHeader(t *testing.T) {
	c, err := New(1536, 256)
	require.NoError(t, err)

	chunks := drain(t, c.Chunk(context.Background(), "Everyone who commits an offence is guilty.", "Criminal Code | s 91"))
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Contains(t, chunks[0].Content, "Criminal Code | s 91\n\n")
	assert.Contains(t, chunks[0].Content, "Everyone who commits an offence is guilty.")
}

func TestChunkNoHeaderOmitsPrefix(t *testing.T) {
	c, err := New(1536, 256)
	require.NoError(t, err)

	chunks := drain(t, c.Chunk(context.Background(), "Short content.", ""))
	require.Len(t, chunks, 1)
	assert.Equal(t, "Short content.", chunks[0].Content)
}

func TestChunkSplitsOnLegalSubsectionBoundaries(t *testing.T) {
	c, err := New(8, 0)
	require.NoError(t, err)

	content := "(1) Every person who does the thing described in this subsection commits an offence punishable on summary conviction.\n(2) Every person who does a different thing described in this other subsection is also guilty of an offence.\n(3) A third subsection follows with its own lengthy descriptive text about penalties and procedure."
	chunks := drain(t, c.Chunk(context.Background(), content, ""))

	require.True(t, len(chunks) > 1, "expected oversized content to split into multiple chunks")
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
	}
}

func TestChunkChannelClosesAfterDrain(t *testing.T) {
	c, err := New(1536, 256)
	require.NoError(t, err)

	ch := c.Chunk(context.Background(), "Some content.", "")
	drain(t, ch)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed and not restartable after full drain")
}

func TestChunkRespectsContextCancellation(t *testing.T) {
	c, err := New(1, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := c.Chunk(ctx, "word one two three four five six seven eight nine ten eleven twelve", "")
	for range ch {
	}
}
