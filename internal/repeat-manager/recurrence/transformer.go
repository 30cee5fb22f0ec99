package recurrence

// identityKeys are storage metadata that must not reach a create call,
// either as top-level properties or inside a property value.
var identityKeys = []string{"id", "type"}

// Transformer turns due templates into creatable instances.
type Transformer struct {
	names PropertyNames
	drop  map[string]struct{}
}

func NewTransformer(names PropertyNames) *Transformer {
	names = names.WithDefaults()
	drop := map[string]struct{}{
		names.CreatedAt:      {},
		names.Created:        {},
		names.RepeatTemplate: {},
		names.Status:         {},
	}
	for _, k := range identityKeys {
		drop[k] = struct{}{}
	}
	for _, k := range names.Strip {
		drop[k] = struct{}{}
	}
	return &Transformer{names: names, drop: drop}
}

// ToInstance builds a fresh instance for today. The template and its
// properties are left untouched.
func (tr *Transformer) ToInstance(t Template, today Date) Instance {
	props := make(Properties, len(t.Properties)+2)
	for k, v := range t.Properties {
		if _, ok := tr.drop[k]; ok {
			continue
		}
		props[k] = stripIdentity(v)
	}
	props[tr.names.Repeating] = map[string]any{"checkbox": true}
	props[tr.names.DoDate] = map[string]any{"date": map[string]any{"start": today.String()}}

	return Instance{TemplateID: t.ID, DoDate: today, Properties: props}
}

// stripIdentity copies a property value object without its id and type.
// Values that are not objects pass through.
func stripIdentity(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	out := make(map[string]any, len(m))
	for k, val := range m {
		out[k] = val
	}
	for _, k := range identityKeys {
		delete(out, k)
	}
	return out
}
