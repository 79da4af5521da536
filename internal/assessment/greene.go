package assessment

import "fmt"

// Greene Climacteric Scale: 21 items rated 0-3, banded on the total.
// Items 1-11 psychological (1-6 anxiety, 7-11 depression), 12-18 somatic,
// 19-20 vasomotor, 21 sexual.
func GreeneClimacteric() *Questionnaire {
	return &Questionnaire{
		Key:      "greene_climacteric",
		Title:    "Greene Climacteric Scale",
		MinValue: 0,
		MaxValue: 3,
		Items: []Item{
			{ID: "gcs_01", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Heart beating quickly or strongly", Help: "Palpitations or a racing heartbeat"},
			{ID: "gcs_02", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Feeling tense or nervous"},
			{ID: "gcs_03", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Difficulty in sleeping", Help: "Trouble falling or staying asleep"},
			{ID: "gcs_04", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Excitable"},
			{ID: "gcs_05", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Attacks of panic"},
			{ID: "gcs_06", Category: CategoryPsychological, Subcategory: SubcategoryAnxiety, Prompt: "Difficulty in concentrating"},
			{ID: "gcs_07", Category: CategoryPsychological, Subcategory: SubcategoryDepression, Prompt: "Feeling tired or lacking in energy"},
			{ID: "gcs_08", Category: CategoryPsychological, Subcategory: SubcategoryDepression, Prompt: "Loss of interest in most things"},
			{ID: "gcs_09", Category: CategoryPsychological, Subcategory: SubcategoryDepression, Prompt: "Feeling unhappy or depressed"},
			{ID: "gcs_10", Category: CategoryPsychological, Subcategory: SubcategoryDepression, Prompt: "Crying spells"},
			{ID: "gcs_11", Category: CategoryPsychological, Subcategory: SubcategoryDepression, Prompt: "Irritability"},
			{ID: "gcs_12", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Feeling dizzy or faint"},
			{ID: "gcs_13", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Pressure or tightness in head or body"},
			{ID: "gcs_14", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Parts of body feel numb or tingling"},
			{ID: "gcs_15", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Headaches"},
			{ID: "gcs_16", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Muscle and joint pains"},
			{ID: "gcs_17", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Loss of feeling in hands or feet"},
			{ID: "gcs_18", Category: CategoryPhysical, Subcategory: SubcategorySomatic, Prompt: "Breathing difficulties"},
			{ID: "gcs_19", Category: CategoryVasomotor, Subcategory: SubcategoryVasomotor, Prompt: "Hot flushes"},
			{ID: "gcs_20", Category: CategoryVasomotor, Subcategory: SubcategoryVasomotor, Prompt: "Sweating at night"},
			{ID: "gcs_21", Category: CategorySexual, Subcategory: SubcategorySexual, Prompt: "Loss of interest in sex"},
		},
		Bands: []Band{
			{Upper: 11, Label: "Minimal Symptoms"},
			{Upper: 19, Label: "Mild Symptoms"},
			{Upper: 35, Label: "Moderate to Severe Symptoms"},
		},
		Terminal: "Severe Symptoms",
	}
}

var registry = map[string]*Questionnaire{}

func init() {
	mustRegister(GreeneClimacteric())
}

func mustRegister(q *Questionnaire) {
	if err := q.Validate(); err != nil {
		panic(err)
	}
	if _, dup := registry[q.Key]; dup {
		panic(fmt.Sprintf("assessment: duplicate questionnaire key %q", q.Key))
	}
	registry[q.Key] = q
}

// ByKey returns the registered instrument, or nil if unknown.
func ByKey(key string) *Questionnaire {
	return registry[key]
}

// Keys lists the registered instrument keys.
func Keys() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	return out
}
