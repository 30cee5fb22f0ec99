package recurrence

// Pipeline evaluates a batch of templates and transforms the due ones.
// It has no side effects.
type Pipeline struct {
	tr *Transformer
}

func NewPipeline(names PropertyNames) *Pipeline {
	return &Pipeline{tr: NewTransformer(names)}
}

// Run returns instances for the templates due on today, in input order.
// Templates without a recognized frequency are skipped.
func (p *Pipeline) Run(templates []Template, today Date) []Instance {
	out := make([]Instance, 0, len(templates))
	for _, t := range templates {
		if t.Frequency == FrequencyNone {
			continue
		}
		if !IsDue(t, today) {
			continue
		}
		out = append(out, p.tr.ToInstance(t, today))
	}
	return out
}
