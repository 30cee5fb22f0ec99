// Package events defines the messages published after a sync cycle.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// InstanceCreatedPayload is published for every instance the sync created.
type InstanceCreatedPayload struct {
	RunID      string         `json:"run_id"`
	TemplateID string         `json:"template_id"`
	InstanceID string         `json:"instance_id"`
	DoDate     string         `json:"do_date"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Marshal encodes p as a protobuf Struct.
func (p InstanceCreatedPayload) Marshal() ([]byte, error) {
	props, err := normalize(p.Properties)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize instance properties: %w", err)
	}
	st, err := structpb.NewStruct(map[string]any{
		"run_id":      p.RunID,
		"template_id": p.TemplateID,
		"instance_id": p.InstanceID,
		"do_date":     p.DoDate,
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339Nano),
		"properties":  props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build instance event struct: %w", err)
	}
	return proto.Marshal(st)
}

// UnmarshalInstanceCreated decodes a payload written by Marshal.
func UnmarshalInstanceCreated(b []byte) (InstanceCreatedPayload, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(b, &st); err != nil {
		return InstanceCreatedPayload{}, fmt.Errorf("failed to unmarshal instance event: %w", err)
	}
	f := st.GetFields()
	p := InstanceCreatedPayload{
		RunID:      f["run_id"].GetStringValue(),
		TemplateID: f["template_id"].GetStringValue(),
		InstanceID: f["instance_id"].GetStringValue(),
		DoDate:     f["do_date"].GetStringValue(),
	}
	if props := f["properties"].GetStructValue(); props != nil {
		p.Properties = props.AsMap()
	}
	if raw := f["created_at"].GetStringValue(); raw != "" {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return InstanceCreatedPayload{}, fmt.Errorf("invalid created_at %q: %w", raw, err)
		}
		p.CreatedAt = ts
	}
	return p, nil
}

// normalize turns arbitrary property values into the plain JSON shapes
// structpb accepts.
func normalize(props map[string]any) (map[string]any, error) {
	if props == nil {
		return map[string]any{}, nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
