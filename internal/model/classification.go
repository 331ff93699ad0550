package model

import "encoding/json"

// Classification is a normalized provider outcome before persistence.
// The Classifier Gateway produces one of these regardless of which
// provider answered.
type Classification struct {
	Label       string
	Confidence  float64
	Reasoning   string
	RawResponse json.RawMessage
	Provider    string
}
