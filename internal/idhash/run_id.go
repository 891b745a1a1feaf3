// Package idhash derives deterministic identifiers for pipeline runs.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"northbound-factor-lab/internal/domain"
)

// RunKey is everything that determines a pipeline run's output.
type RunKey struct {
	Instrument string
	Variant    domain.Variant
	StartDate  domain.TradeDate
	EndDate    domain.TradeDate
	Params     map[string]float64 // classifier bounds
	Inputs     map[string]string  // input name -> content digest
}

// ComputeRunID computes a deterministic run_id using SHA256.
// Formula: SHA256(instrument|variant|start|end|k1=v1,...|n1=d1,...) with
// params and inputs sorted by key.
// Returns hex-encoded hash (64 characters).
func ComputeRunID(k RunKey) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%s|%s",
		k.Instrument,
		string(k.Variant),
		int(k.StartDate),
		int(k.EndDate),
		joinSorted(k.Params, func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }),
		joinSorted(k.Inputs, func(v string) string { return v }),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// DigestReader returns the hex SHA256 of everything read from r.
func DigestReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// DigestFile returns the hex SHA256 of the file at path.
func DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return DigestReader(f)
}

func joinSorted[V any](m map[string]V, format func(V) string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + format(m[k])
	}
	return strings.Join(parts, ",")
}
