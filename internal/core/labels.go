// Package core defines core types.
package core

// Labels represents key-value metadata attached by dissectors.
type Labels map[string]string

// Label naming constants following {protocol}.{field} convention.
const (
	LabelDiameterCommand = "diameter.cmd"
	LabelDiameterApp     = "diameter.app"
	LabelDiameterFlags   = "diameter.flags"
	LabelDiameterAVPs    = "diameter.avps" // number of top-level AVPs
	LabelDiameterReqIn   = "diameter.request_in"
	LabelDiameterAnsIn   = "diameter.answer_in"

	LabelVJKind  = "vj.kind" // ip / uncompressed / compressed
	LabelVJSlot  = "vj.slot"
	LabelVJError = "vj.error"
)
