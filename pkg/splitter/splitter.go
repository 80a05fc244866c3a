package splitter

import (
	"strings"
)

type SplitterConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Splitter breaks raw text into bounded chunks. Separators are tried in
// priority order: paragraph breaks first, then lines, sentence enders,
// commas, spaces, and finally raw character windows. Trailing characters
// of each chunk repeat at the head of the next so meaning survives the
// boundary.
type Splitter struct {
	config     SplitterConfig
	separators []string
}

func NewWithConfig(config SplitterConfig) Splitter {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}

	return Splitter{
		config:     config,
		separators: []string{"\n\n", "\n", ". ", "! ", "? ", ", ", " ", ""},
	}
}

func (s *Splitter) Split(text string) []string {
	var chunks []string
	for _, chunk := range s.split(text, s.separators) {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

func (s *Splitter) split(text string, separators []string) []string {
	separator, remaining := pickSeparator(text, separators)

	if separator == "" {
		return s.splitByWindow(text)
	}

	pieces := strings.SplitAfter(text, separator)

	var chunks []string
	var current []string
	currentLen := 0
	pending := false

	flush := func() {
		if !pending {
			return
		}
		chunks = append(chunks, strings.Join(current, ""))
		pending = false

		// Keep a tail of pieces as overlap for the next chunk.
		for currentLen > s.config.ChunkOverlap && len(current) > 0 {
			currentLen -= len(current[0])
			current = current[1:]
		}
	}

	for _, piece := range pieces {
		if piece == "" {
			continue
		}

		if len(piece) > s.config.ChunkSize {
			// Piece too large for any chunk; recurse with finer separators.
			flush()
			current = nil
			currentLen = 0
			chunks = append(chunks, s.split(piece, remaining)...)
			continue
		}

		if currentLen+len(piece) > s.config.ChunkSize {
			flush()
			// The carried tail plus a large piece can still overflow;
			// shed from the front until the piece fits.
			for len(current) > 0 && currentLen+len(piece) > s.config.ChunkSize {
				currentLen -= len(current[0])
				current = current[1:]
			}
		}

		current = append(current, piece)
		currentLen += len(piece)
		pending = true
	}

	flush()

	return chunks
}

// splitByWindow is the terminal strategy: fixed-size character windows
// advanced by chunk_size minus overlap.
func (s *Splitter) splitByWindow(text string) []string {
	if len(text) <= s.config.ChunkSize {
		return []string{text}
	}

	stride := s.config.ChunkSize - s.config.ChunkOverlap
	if stride < 1 {
		stride = s.config.ChunkSize
	}

	var chunks []string
	for start := 0; start < len(text); start += stride {
		end := start + s.config.ChunkSize
		if end >= len(text) {
			chunks = append(chunks, text[start:])
			break
		}
		chunks = append(chunks, text[start:end])
	}
	return chunks
}

func pickSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}
