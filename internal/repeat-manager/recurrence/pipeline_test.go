package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineRun_EmptyAndNil(t *testing.T) {
	p := NewPipeline(DefaultPropertyNames())
	today := mustDate(t, "2024-03-08")

	out := p.Run(nil, today)
	assert.NotNil(t, out)
	assert.Empty(t, out)

	out = p.Run([]Template{}, today)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestPipelineRun_FiltersAndPreservesOrder(t *testing.T) {
	p := NewPipeline(DefaultPropertyNames())
	created := mustDate(t, "2024-03-01") // Friday
	templates := []Template{
		{ID: "a", CreatedOn: created, Frequency: Daily},
		{ID: "b", CreatedOn: created, Frequency: FrequencyNone},
		{ID: "c", CreatedOn: created, Frequency: Weekly, WeeklyDays: []Weekday{Monday}},
		{ID: "d", CreatedOn: created, Frequency: Weekly},
		{ID: "e", CreatedOn: created, Frequency: Monthly},
		{ID: "f", CreatedOn: created, Frequency: Daily, RepeatEvery: 7},
	}

	out := p.Run(templates, mustDate(t, "2024-03-08"))

	ids := make([]string, 0, len(out))
	for _, inst := range out {
		ids = append(ids, inst.TemplateID)
	}
	assert.Equal(t, []string{"a", "d", "f"}, ids)
}

func TestPipelineRun_WeeklyScenario(t *testing.T) {
	names := DefaultPropertyNames()
	dec := NewDecoder(names, nil)
	rec := Record{
		ID: "tmpl-weekly",
		Properties: Properties{
			"Created At":       map[string]any{"date": map[string]any{"start": "2024-03-01"}},
			"Repeat Frequency": map[string]any{"select": map[string]any{"name": "Weekly"}},
			"Repeat Every":     map[string]any{"number": float64(1)},
			"Repeat Days (Weekly)": map[string]any{
				"multi_select": []any{},
			},
			"Name": map[string]any{"title": []any{}},
		},
	}
	tmpl, err := dec.Decode(rec)
	require.NoError(t, err)

	out := NewPipeline(names).Run([]Template{tmpl}, mustDate(t, "2024-03-08"))

	require.Len(t, out, 1)
	assert.Equal(t, map[string]any{"date": map[string]any{"start": "2024-03-08"}}, out[0].Properties["Do"])
	assert.Equal(t, map[string]any{"checkbox": true}, out[0].Properties["Repeating"])
}

func TestPipelineRun_MonthlyGateScenario(t *testing.T) {
	tmpl := Template{
		ID:           "tmpl-monthly",
		CreatedOn:    mustDate(t, "2024-01-15"),
		Frequency:    Monthly,
		RepeatEvery:  2,
		MonthlyDates: []int{1, 15},
	}
	out := NewPipeline(DefaultPropertyNames()).Run([]Template{tmpl}, mustDate(t, "2024-02-15"))
	assert.Empty(t, out)
}
