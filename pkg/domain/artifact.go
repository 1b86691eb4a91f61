package domain

import (
	"encoding/json"
	"fmt"
)

// Artifact is the JSON object persisted at the end of a successful run.
type Artifact map[string]any

// MergeArtifact shallow-merges the two records. Keys present in both
// (summary) resolve to the Recommendations value.
func MergeArtifact(a *Anomalies, r *Recommendations) (Artifact, error) {
	out := Artifact{}
	for _, rec := range []any{a, r} {
		m, err := toMap(rec)
		if err != nil {
			return nil, err
		}
		out = MergeMaps(out, m)
	}
	return out, nil
}

// MergeMaps returns base overlaid with over; over wins on collision.
func MergeMaps(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

func toMap(rec any) (map[string]any, error) {
	switch v := rec.(type) {
	case *Anomalies:
		if v == nil {
			return nil, nil
		}
	case *Recommendations:
		if v == nil {
			return nil, nil
		}
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return m, nil
}
