package store

import (
	"fmt"

	"github.com/absbox/absc/internal/ir"
)

// marshalIR converts a deal document to canonical JSON TEXT for storage.
func marshalIR(doc ir.IRTagged) (string, error) {
	data, err := ir.MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("marshal ir: %w", err)
	}
	return string(data), nil
}

// unmarshalIR parses stored canonical JSON back into a deal document.
// Numbers keep their exact decimal text.
func unmarshalIR(data string) (ir.IRTagged, error) {
	v, err := ir.UnmarshalIRValue([]byte(data))
	if err != nil {
		return ir.IRTagged{}, fmt.Errorf("unmarshal ir: %w", err)
	}
	t, ok := v.(ir.IRTagged)
	if !ok {
		return ir.IRTagged{}, fmt.Errorf("unmarshal ir: stored document is %T, want tagged deal", v)
	}
	return t, nil
}
