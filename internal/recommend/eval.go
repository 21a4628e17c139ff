package recommend

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoCases is returned when Evaluate is called with an empty case set.
var ErrNoCases = errors.New("no evaluation cases")

// Case is one labeled evaluation pair: a query and the assessment expected
// somewhere in its top-k results. Expected matches by name
// (case-insensitive); ExpectedID matches by catalog id when Expected is empty.
type Case struct {
	Query      string `json:"query"`
	Expected   string `json:"expected,omitempty"`
	ExpectedID *int   `json:"expected_id,omitempty"`
}

// Evaluate computes recall@k for cases against the pipeline's index.
//
// It runs the retrieval path without enrichment so results are reproducible,
// with scores enabled internally so dedup behavior matches live traffic.
func (p *Pipeline) Evaluate(ctx context.Context, cases []Case, k int) (float64, error) {
	if len(cases) == 0 {
		return 0, ErrNoCases
	}
	if k <= 0 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}

	hits := 0
	for i, c := range cases {
		res, err := p.recommendPlain(ctx, c.Query, k)
		if err != nil {
			return 0, fmt.Errorf("case %d: %w", i, err)
		}
		if caseHit(p, c, res) {
			hits++
		}
	}
	return float64(hits) / float64(len(cases)), nil
}

func caseHit(p *Pipeline, c Case, res Result) bool {
	var wantName string
	switch {
	case c.Expected != "":
		wantName = strings.ToLower(c.Expected)
	case c.ExpectedID != nil:
		id := *c.ExpectedID
		if id < 0 || id >= p.engine.Len() {
			return false
		}
		wantName = strings.ToLower(p.engine.Entry(id).Name)
	default:
		return false
	}
	for _, r := range res.Recommendations {
		if strings.ToLower(r.AssessmentName) == wantName {
			return true
		}
	}
	return false
}

// LoadCases reads evaluation cases from a JSONL file, one Case per line.
func LoadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open cases file %s: %w", path, err)
	}
	defer f.Close()

	var out []Case
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("invalid case JSONL %s: %w", path, err)
		}
		out = append(out, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read cases file %s: %w", path, err)
	}
	return out, nil
}
