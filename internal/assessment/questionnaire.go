// Package assessment implements the clinical questionnaire scoring engine.
// Scoring is a pure computation over a static instrument definition and a
// set of per-item integer responses; persistence lives in the service layer.
package assessment

import (
	"fmt"
	"sort"
)

type Category string

const (
	CategoryPsychological Category = "psychological"
	CategoryPhysical      Category = "physical"
	CategoryVasomotor     Category = "vasomotor"
	CategorySexual        Category = "sexual"
)

type Subcategory string

const (
	SubcategoryAnxiety    Subcategory = "anxiety"
	SubcategoryDepression Subcategory = "depression"
	SubcategorySomatic    Subcategory = "somatic"
	SubcategoryVasomotor  Subcategory = "vasomotor"
	SubcategorySexual     Subcategory = "sexual"
)

type Item struct {
	ID          string      `json:"id"`
	Category    Category    `json:"category"`
	Subcategory Subcategory `json:"subcategory"`
	Prompt      string      `json:"prompt"`
	Help        string      `json:"help,omitempty"`
}

// Band maps totals up to and including Upper to Label. Bands are scanned in
// ascending order; totals above the last Upper fall into Terminal.
type Band struct {
	Upper int    `json:"upper"`
	Label string `json:"label"`
}

type Questionnaire struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	MinValue int    `json:"min_value"`
	MaxValue int    `json:"max_value"`
	Items    []Item `json:"items"`
	Bands    []Band `json:"bands"`
	Terminal string `json:"terminal_band"`
}

type Result struct {
	Total         int                 `json:"total"`
	ByCategory    map[Category]int    `json:"by_category"`
	BySubcategory map[Subcategory]int `json:"by_subcategory"`
	Band          string              `json:"band"`
}

// Complete reports whether every defined item has a response. Display of a
// score is gated on this predicate; Score additionally enforces it.
func (q *Questionnaire) Complete(responses map[string]int) bool {
	for _, it := range q.Items {
		if _, ok := responses[it.ID]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the item IDs without a response, in definition order.
func (q *Questionnaire) Missing(responses map[string]int) []string {
	var missing []string
	for _, it := range q.Items {
		if _, ok := responses[it.ID]; !ok {
			missing = append(missing, it.ID)
		}
	}
	return missing
}

// Score computes the total, category and subcategory subscores, and the
// severity band. The engine validates its input: an incomplete response set,
// an unknown item ID, or a value outside [MinValue, MaxValue] is an error.
func (q *Questionnaire) Score(responses map[string]int) (Result, error) {
	if missing := q.Missing(responses); len(missing) > 0 {
		return Result{}, fmt.Errorf("incomplete response set: %d of %d items unanswered (first missing %q)",
			len(missing), len(q.Items), missing[0])
	}

	known := make(map[string]Item, len(q.Items))
	for _, it := range q.Items {
		known[it.ID] = it
	}
	for id := range responses {
		if _, ok := known[id]; !ok {
			return Result{}, fmt.Errorf("unknown item id %q", id)
		}
	}

	res := Result{
		ByCategory:    make(map[Category]int),
		BySubcategory: make(map[Subcategory]int),
	}
	for _, it := range q.Items {
		v := responses[it.ID]
		if v < q.MinValue || v > q.MaxValue {
			return Result{}, fmt.Errorf("item %q: value %d outside [%d, %d]", it.ID, v, q.MinValue, q.MaxValue)
		}
		res.Total += v
		res.ByCategory[it.Category] += v
		res.BySubcategory[it.Subcategory] += v
	}
	res.Band = q.BandFor(res.Total)
	return res, nil
}

// BandFor maps a total to its severity label: the first band whose inclusive
// upper bound the total does not exceed, scanned ascending. Bands are never
// re-derived from subscores.
func (q *Questionnaire) BandFor(total int) string {
	for _, b := range q.Bands {
		if total <= b.Upper {
			return b.Label
		}
	}
	return q.Terminal
}

// Validate checks the static definition: unique item IDs and strictly
// ascending band bounds. Called once at registration.
func (q *Questionnaire) Validate() error {
	seen := make(map[string]bool, len(q.Items))
	for _, it := range q.Items {
		if it.ID == "" {
			return fmt.Errorf("questionnaire %q: item with empty id", q.Key)
		}
		if seen[it.ID] {
			return fmt.Errorf("questionnaire %q: duplicate item id %q", q.Key, it.ID)
		}
		seen[it.ID] = true
	}
	if q.MinValue > q.MaxValue {
		return fmt.Errorf("questionnaire %q: min value %d above max %d", q.Key, q.MinValue, q.MaxValue)
	}
	if !sort.SliceIsSorted(q.Bands, func(i, j int) bool { return q.Bands[i].Upper < q.Bands[j].Upper }) {
		return fmt.Errorf("questionnaire %q: band bounds not ascending", q.Key)
	}
	if q.Terminal == "" {
		return fmt.Errorf("questionnaire %q: missing terminal band label", q.Key)
	}
	return nil
}
