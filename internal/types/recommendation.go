package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// LinkRecommendation is a proposed internal link from a source page to its cluster's pillar page.
type LinkRecommendation struct {
	SourceURL          string  `json:"source_url" validate:"required,url,nefield=TargetURL"`
	TargetURL          string  `json:"target_url" validate:"required,url"`
	AnchorText         string  `json:"anchor_text" validate:"required"`
	SupportingSentence string  `json:"supporting_sentence" validate:"required"`
	SemanticScore      float64 `json:"semantic_score" validate:"gte=-1,lte=1"`
	ClusterID          int     `json:"cluster_id" validate:"gte=0"`
}

// validate is shared so struct metadata is parsed once; validator.Validate is safe for concurrent use.
var validate = validator.New()

// Validate checks that every required field is present and that the link is not a self link.
func (r *LinkRecommendation) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid recommendation %s -> %s: %w", r.SourceURL, r.TargetURL, err)
	}
	return nil
}

// Key returns the (source, target) pair used for deduplication.
func (r *LinkRecommendation) Key() string {
	return r.SourceURL + "\x00" + r.TargetURL
}
