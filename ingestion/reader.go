package ingestion

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/poiesic/lihtcrag/core"
)

// ReadStateChunks decodes QAP chunk records from r. The input may be a
// JSON array of records or a stream of records (JSON Lines).
func ReadStateChunks(r io.Reader) ([]*core.StateChunk, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var chunks []*core.StateChunk
		if err := dec.Decode(&chunks); err != nil {
			return nil, fmt.Errorf("decoding chunk array: %w", err)
		}
		return chunks, nil
	}

	var chunks []*core.StateChunk
	for {
		var chunk core.StateChunk
		err := dec.Decode(&chunk)
		if errors.Is(err, io.EOF) {
			return chunks, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding chunk %d: %w", len(chunks)+1, err)
		}
		chunks = append(chunks, &chunk)
	}
}

// peekNonSpace returns the first non-whitespace byte without consuming it.
func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
