package selfplay

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pierrec/lz4/v4"

	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/dama"
	"github.com/Hex-adecimal/mcts-dama-sub000/pkg/nn"
)

// Sample is one training example: the encoded position before a move,
// the visit policy the search produced for it, and the final game
// outcome from the perspective of the side to move.
type Sample struct {
	GameID   uuid.UUID
	Ply      int
	Side     dama.Color
	Features []float32 // nn.FeatSize values
	Policy   []float32 // dama.ActionSpace probabilities, sparse
	Outcome  float32   // 1 win, 0 draw, -1 loss for Side
}

// Sink receives the samples of one finished game at a time.
type Sink interface {
	WriteGame(samples []Sample) error
}

// Writer streams samples to an lz4-compressed CSV file. Row layout:
// game id, ply, outcome, policy as "index:prob" pairs joined with '|',
// then the feature values. Safe for concurrent WriteGame calls; rows
// of one game stay contiguous.
type Writer struct {
	mu  sync.Mutex
	f   *os.File
	lz  *lz4.Writer
	csv *csv.Writer
}

func NewWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	lz := lz4.NewWriter(f)
	return &Writer{f: f, lz: lz, csv: csv.NewWriter(lz)}, nil
}

func (w *Writer) WriteGame(samples []Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	row := make([]string, 0, 4+nn.FeatSize)
	for _, s := range samples {
		row = row[:0]
		row = append(row,
			s.GameID.String(),
			strconv.Itoa(s.Ply),
			strconv.FormatFloat(float64(s.Outcome), 'g', -1, 32),
			encodePolicy(s.Policy),
		)
		for _, v := range s.Features {
			row = append(row, strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.lz.Close(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// encodePolicy writes only the nonzero entries, the vector is overwhelmingly
// zeros.
func encodePolicy(policy []float32) string {
	var b strings.Builder
	first := true
	for idx, p := range policy {
		if p == 0 {
			continue
		}
		if !first {
			b.WriteByte('|')
		}
		first = false
		b.WriteString(strconv.Itoa(idx))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(float64(p), 'g', -1, 32))
	}
	return b.String()
}
