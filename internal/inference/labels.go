// Package inference implements the classification pipeline: image
// normalization, ONNX model inference, and confidence resolution.
package inference

// Label is one of the four diagnostic outcomes the classifier can emit.
type Label string

// Diagnostic labels in classifier output order.
const (
	LabelCyst   Label = "Cyst"
	LabelNormal Label = "Normal"
	LabelStone  Label = "Stone"
	LabelTumor  Label = "Tumor"
)

// Labels returns the label enumeration in classifier output order: index i of
// the score vector maps to Labels()[i]. The order is fixed by training and
// must not change without a retrained model.
func Labels() []Label {
	return []Label{LabelCyst, LabelNormal, LabelStone, LabelTumor}
}
