package lmapio

import (
	"encoding/json"
	"fmt"
	"time"

	"lmapd/internal/domain"
)

// The JSON rendering wraps the same wire tree under the YANG module
// name, e.g. {"ietf-lmap-control:lmap": {...}}.

type jsonConfigDoc struct {
	Lmap *xmlLmap `json:"ietf-lmap-control:lmap"`
}

type jsonReportDoc struct {
	Report xmlReportBody `json:"ietf-lmap-report:report"`
}

// RenderConfigJSON renders the configuration subtree of cfg as JSON.
func RenderConfigJSON(cfg *domain.Config) (string, error) {
	doc := jsonConfigDoc{Lmap: buildLmap(cfg, renderConfig)}
	return marshalJSON(doc)
}

// RenderStateJSON renders the full state document as JSON.
func RenderStateJSON(cfg *domain.Config) (string, error) {
	doc := jsonConfigDoc{Lmap: buildLmap(cfg, renderState)}
	return marshalJSON(doc)
}

// ParseConfigJSON builds a configuration tree from a JSON document.
func ParseConfigJSON(data []byte) (*domain.Config, error) {
	var doc jsonConfigDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lmap document: %w", err)
	}
	if doc.Lmap == nil {
		return nil, fmt.Errorf("missing %s:lmap member: %w", ControlModule, domain.ErrInvalidConfig)
	}
	return docToConfig(doc.Lmap)
}

// RenderReportJSON renders the accumulated results of cfg as a JSON
// report document.
func RenderReportJSON(cfg *domain.Config, now time.Time) (string, error) {
	doc := jsonReportDoc{Report: buildReportBody(cfg, now)}
	return marshalJSON(doc)
}

func marshalJSON(doc any) (string, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render json document: %w", err)
	}
	return string(out) + "\n", nil
}
