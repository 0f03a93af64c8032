package models

// Label is the three-way sentiment class.
type Label string

const (
	Positive Label = "Positive"
	Neutral  Label = "Neutral"
	Negative Label = "Negative"
)

// Labels is the fixed class order used for confusion-matrix axes and reports.
var Labels = [3]Label{Positive, Neutral, Negative}

// Index returns the label's position in Labels, or -1.
func (l Label) Index() int {
	for i, v := range Labels {
		if v == l {
			return i
		}
	}
	return -1
}

// Polarity is the output of a rule-based polarity model for one text.
type Polarity struct {
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
	Positive float64 `json:"pos"`
	Compound float64 `json:"compound"`
}

// ScoredRecord is a Record with its sentiment channels and derived label.
type ScoredRecord struct {
	Record
	Polarity
	Label Label `json:"sentiment"`
}
