package config

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"

	"repeat-task-service/internal/repeat-manager/recurrence"
)

// PropertyMap is the on-disk form of recurrence.PropertyNames. Omitted
// keys keep their defaults.
type PropertyMap struct {
	CreatedAt       string   `yaml:"created_at"`
	Created         string   `yaml:"created"`
	RepeatTemplate  string   `yaml:"repeat_template"`
	Status          string   `yaml:"status"`
	RepeatEvery     string   `yaml:"repeat_every"`
	RepeatFrequency string   `yaml:"repeat_frequency"`
	WeeklyDays      string   `yaml:"weekly_days"`
	MonthlyDates    string   `yaml:"monthly_dates"`
	Repeating       string   `yaml:"repeating"`
	DoDate          string   `yaml:"do_date"`
	Strip           []string `yaml:"strip"`
}

func (m PropertyMap) Names() recurrence.PropertyNames {
	return recurrence.PropertyNames{
		CreatedAt:       m.CreatedAt,
		Created:         m.Created,
		RepeatTemplate:  m.RepeatTemplate,
		Status:          m.Status,
		RepeatEvery:     m.RepeatEvery,
		RepeatFrequency: m.RepeatFrequency,
		WeeklyDays:      m.WeeklyDays,
		MonthlyDates:    m.MonthlyDates,
		Repeating:       m.Repeating,
		DoDate:          m.DoDate,
		Strip:           m.Strip,
	}.WithDefaults()
}

// ParsePropertyMap reads property names from YAML.
func ParsePropertyMap(data []byte) (recurrence.PropertyNames, error) {
	var m PropertyMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return recurrence.PropertyNames{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return m.Names(), nil
}

// LoadPropertyNames reads path, or returns the defaults when path is empty.
func LoadPropertyNames(path string) (recurrence.PropertyNames, error) {
	if path == "" {
		return recurrence.DefaultPropertyNames(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return recurrence.PropertyNames{}, fmt.Errorf("failed to read property map: %w", err)
	}
	return ParsePropertyMap(data)
}
