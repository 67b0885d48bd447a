package verify

import (
	"os"
	"strings"
)

// #region operator-registry

// RegistryOp is one operator block from the plain-text operator registry:
// the operator name plus its lowercase key/value attributes, typically
// primary_folder and replay_folder.
type RegistryOp struct {
	Operator string
	Attrs    map[string]string
}

// ParseOperatorRegistry reads the registry file: blocks separated by blank
// lines, a header line starting with "SBM OPERATOR REGISTRY" skipped, the
// first line of each block the operator name and the rest "key: value"
// pairs. A missing file yields an empty registry.
func ParseOperatorRegistry(path string) ([]RegistryOp, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var blocks [][]string
	var cur []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if len(cur) > 0 {
				blocks = append(blocks, cur)
				cur = nil
			}
			continue
		}
		if strings.HasPrefix(trimmed, "SBM OPERATOR REGISTRY") {
			continue
		}
		cur = append(cur, strings.TrimRight(line, " \t\r"))
	}
	if len(cur) > 0 {
		blocks = append(blocks, cur)
	}

	ops := make([]RegistryOp, 0, len(blocks))
	for _, b := range blocks {
		op := RegistryOp{
			Operator: strings.TrimSpace(b[0]),
			Attrs:    make(map[string]string),
		}
		for _, line := range b[1:] {
			if k, v, ok := strings.Cut(line, ":"); ok {
				op.Attrs[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
			}
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// #endregion operator-registry
