package assessment

import "testing"

func allAnswered(q *Questionnaire, value int) map[string]int {
	resp := make(map[string]int, len(q.Items))
	for _, it := range q.Items {
		resp[it.ID] = value
	}
	return resp
}

func TestGreeneDefinition(t *testing.T) {
	q := GreeneClimacteric()
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(q.Items) != 21 {
		t.Fatalf("expected 21 items, got %d", len(q.Items))
	}
}

func TestScoreAllOnes(t *testing.T) {
	q := GreeneClimacteric()
	res, err := q.Score(allAnswered(q, 1))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Total != 21 {
		t.Fatalf("total: got %d want 21", res.Total)
	}
	if res.Band != "Moderate to Severe Symptoms" {
		t.Fatalf("band: got %q", res.Band)
	}
	if res.BySubcategory[SubcategoryAnxiety] != 6 {
		t.Fatalf("anxiety subscore: got %d want 6", res.BySubcategory[SubcategoryAnxiety])
	}
	if res.BySubcategory[SubcategoryDepression] != 5 {
		t.Fatalf("depression subscore: got %d want 5", res.BySubcategory[SubcategoryDepression])
	}
	if res.ByCategory[CategoryPsychological] != 11 {
		t.Fatalf("psychological subscore: got %d want 11", res.ByCategory[CategoryPsychological])
	}
}

func TestScoreAllZeros(t *testing.T) {
	q := GreeneClimacteric()
	res, err := q.Score(allAnswered(q, 0))
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("total: got %d want 0", res.Total)
	}
	if res.Band != "Minimal Symptoms" {
		t.Fatalf("band: got %q", res.Band)
	}
}

func TestTotalEqualsCategoryPartition(t *testing.T) {
	q := GreeneClimacteric()
	resp := allAnswered(q, 0)
	// Uneven spread across the range.
	i := 0
	for _, it := range q.Items {
		resp[it.ID] = i % 4
		i++
	}
	res, err := q.Score(resp)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	catSum := 0
	for _, v := range res.ByCategory {
		catSum += v
	}
	if catSum != res.Total {
		t.Fatalf("category subscores sum %d != total %d", catSum, res.Total)
	}
	subSum := 0
	for _, v := range res.BySubcategory {
		subSum += v
	}
	if subSum != res.Total {
		t.Fatalf("subcategory subscores sum %d != total %d", subSum, res.Total)
	}
}

func TestScoreRejectsIncomplete(t *testing.T) {
	q := GreeneClimacteric()
	resp := allAnswered(q, 1)
	delete(resp, "gcs_21")
	if !q.Complete(allAnswered(q, 1)) {
		t.Fatal("complete set reported incomplete")
	}
	if q.Complete(resp) {
		t.Fatal("incomplete set reported complete")
	}
	if _, err := q.Score(resp); err == nil {
		t.Fatal("expected error for incomplete response set")
	}
	if missing := q.Missing(resp); len(missing) != 1 || missing[0] != "gcs_21" {
		t.Fatalf("Missing: got %v", missing)
	}
}

func TestScoreRejectsOutOfRange(t *testing.T) {
	q := GreeneClimacteric()
	resp := allAnswered(q, 1)
	resp["gcs_05"] = 4
	if _, err := q.Score(resp); err == nil {
		t.Fatal("expected error for out-of-range value")
	}
	resp["gcs_05"] = -1
	if _, err := q.Score(resp); err == nil {
		t.Fatal("expected error for negative value")
	}
}

func TestScoreRejectsUnknownItem(t *testing.T) {
	q := GreeneClimacteric()
	resp := allAnswered(q, 1)
	resp["gcs_99"] = 1
	if _, err := q.Score(resp); err == nil {
		t.Fatal("expected error for unknown item id")
	}
}

func TestBandBoundaries(t *testing.T) {
	q := GreeneClimacteric()
	cases := []struct {
		total int
		want  string
	}{
		{0, "Minimal Symptoms"},
		{11, "Minimal Symptoms"},
		{12, "Mild Symptoms"},
		{19, "Mild Symptoms"},
		{20, "Moderate to Severe Symptoms"},
		{35, "Moderate to Severe Symptoms"},
		{36, "Severe Symptoms"},
		{63, "Severe Symptoms"},
	}
	for _, tc := range cases {
		if got := q.BandFor(tc.total); got != tc.want {
			t.Errorf("BandFor(%d): got %q want %q", tc.total, got, tc.want)
		}
	}
}

func TestBandMonotonicity(t *testing.T) {
	q := GreeneClimacteric()
	severity := map[string]int{
		"Minimal Symptoms":            0,
		"Mild Symptoms":               1,
		"Moderate to Severe Symptoms": 2,
		"Severe Symptoms":             3,
	}
	prev := -1
	for total := 0; total <= 63; total++ {
		s, ok := severity[q.BandFor(total)]
		if !ok {
			t.Fatalf("unknown band %q at total %d", q.BandFor(total), total)
		}
		if s < prev {
			t.Fatalf("band severity decreased at total %d", total)
		}
		prev = s
	}
}
