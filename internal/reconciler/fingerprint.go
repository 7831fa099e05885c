package reconciler

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/r3labs/diff/v3"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

// Fingerprint returns the 16-hex-character digest of spec's canonical JSON
// encoding, used as status.lastAppliedHash (spec.md §4.5) to detect drift
// between reconciles without re-diffing the whole object every time.
func Fingerprint(spec interface{}) (string, error) {
	canonical, err := canonicalize(spec)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16], nil
}

// clusterFingerprintSpec is the canonical subset of ClusterSpec that
// actually affects the concrete workload (spec.md §3): replicas, image,
// apikey, readApikey, tls, resources, persistence, service. Fields like
// placement, additionalVolumes, sidecarContainers, snapshots, and suspend
// are deliberately excluded so editing them doesn't trip drift detection.
type clusterFingerprintSpec struct {
	Replicas    int32                         `json:"replicas"`
	Image       string                        `json:"image"`
	Apikey      string                        `json:"apikey"`
	ReadApikey  string                        `json:"readApikey"`
	TLS         v1alpha1.TLSSpec              `json:"tls"`
	Resources   v1alpha1.ResourceRequirements `json:"resources"`
	Persistence v1alpha1.PersistenceSpec      `json:"persistence"`
	Service     v1alpha1.ServiceType          `json:"service"`
}

// ClusterFingerprint hashes only the canonical subset of spec that affects
// the rendered workload, per spec.md §3 — unlike Fingerprint(cr.Spec),
// which would also hash placement/volumes/sidecars/snapshots/suspend and
// cause those fields to trigger a spurious re-apply.
func ClusterFingerprint(spec v1alpha1.ClusterSpec) (string, error) {
	return Fingerprint(clusterFingerprintSpec{
		Replicas:    spec.Replicas,
		Image:       spec.Image,
		Apikey:      spec.Apikey,
		ReadApikey:  spec.ReadApikey,
		TLS:         spec.TLS,
		Resources:   spec.Resources,
		Persistence: spec.Persistence,
		Service:     spec.Service,
	})
}

// canonicalize re-marshals spec through a map so struct field order never
// affects the digest, only key-sorted content does.
func canonicalize(spec interface{}) ([]byte, error) {
	raw, err := json.Marshal(spec)
	if err != nil {
		return nil, err
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(generic))
	for k := range generic {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ordered := make([]byte, 0, len(raw))
	ordered = append(ordered, '{')
	for i, k := range keys {
		if i > 0 {
			ordered = append(ordered, ',')
		}
		kb, _ := json.Marshal(k)
		ordered = append(ordered, kb...)
		ordered = append(ordered, ':')
		vb, err := json.Marshal(generic[k])
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, vb...)
	}
	ordered = append(ordered, '}')

	return ordered, nil
}

// Drift renders a human-readable summary of what changed between the
// previously-applied spec and the current one. ClusterReconciler does not
// call it; its drift log line names no changed fields.
func Drift(previous, current interface{}) (string, error) {
	changelog, err := diff.Diff(previous, current)
	if err != nil {
		return "", err
	}

	if len(changelog) == 0 {
		return "no field-level changes detected", nil
	}

	summary := ""
	for i, c := range changelog {
		if i > 0 {
			summary += "; "
		}
		summary += c.Type + " " + joinPath(c.Path) + ": " + toStr(c.From) + " -> " + toStr(c.To)
	}
	return summary, nil
}

func joinPath(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func toStr(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "<unprintable>"
	}
	return string(b)
}
