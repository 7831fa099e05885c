// Package manifests renders the Kubernetes objects a QdrantCluster or
// QdrantCollection resource owns: config objects, secrets, services, the
// disruption budget, the workload, and backup/restore jobs (spec.md §4.5
// step 2, §12). Every Render* function is pure: given a spec it returns an
// object, with no client calls and no side effects, so the reconciler owns
// all I/O.
package manifests

import (
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

var sprigFuncMap = sprig.TxtFuncMap()

// nameTemplates let operators-in-training read the naming scheme the way
// the teacher's scheme templates read: as a small text/template string
// rather than a pile of Sprintf calls scattered across every Render func.
var nameTemplates = map[string]*template.Template{
	"headless":  template.Must(template.New("headless").Funcs(sprigFuncMap).Parse(`{{ .Name }}-headless`)),
	"client":    template.Must(template.New("client").Funcs(sprigFuncMap).Parse(`{{ .Name }}`)),
	"config":    template.Must(template.New("config").Funcs(sprigFuncMap).Parse(`{{ .Name }}-config`)),
	"apikey":    template.Must(template.New("apikey").Funcs(sprigFuncMap).Parse(`{{ .Name }}-apikey`)),
	"read-key":  template.Must(template.New("read-key").Funcs(sprigFuncMap).Parse(`{{ .Name }}-read-apikey`)),
	"auth":      template.Must(template.New("auth").Funcs(sprigFuncMap).Parse(`{{ .Name }}-auth`)),
	"pdb":       template.Must(template.New("pdb").Funcs(sprigFuncMap).Parse(`{{ .Name }}-pdb`)),
	"tls":       template.Must(template.New("tls").Funcs(sprigFuncMap).Parse(`{{ .Name | trunc 54 }}-tls`)),
	"backup":    template.Must(template.New("backup").Funcs(sprigFuncMap).Parse(`{{ .Name }}-backup-{{ .Suffix }}`)),
	"restore":   template.Must(template.New("restore").Funcs(sprigFuncMap).Parse(`{{ .Name }}-restore-{{ .Suffix }}`)),
	"backupcron": template.Must(template.New("backupcron").Funcs(sprigFuncMap).Parse(`{{ .Name }}-backup-schedule`)),
}

type nameInput struct {
	Name   string
	Suffix string
}

func renderName(kind, clusterName, suffix string) string {
	tmpl, ok := nameTemplates[kind]
	if !ok {
		return clusterName + "-" + kind
	}

	var out strings.Builder
	// name templates are fixed, compiled-in strings; execution only fails
	// on a missing field, which cannot happen with nameInput's shape.
	_ = tmpl.Execute(&out, nameInput{Name: clusterName, Suffix: suffix})
	return out.String()
}

// HeadlessServiceName returns the name of the StatefulSet's governing
// headless service.
func HeadlessServiceName(clusterName string) string { return renderName("headless", clusterName, "") }

// ClientServiceName returns the name of the client-facing Service.
func ClientServiceName(clusterName string) string { return renderName("client", clusterName, "") }

// ConfigObjectName returns the name of the rendered qdrant config ConfigMap.
func ConfigObjectName(clusterName string) string { return renderName("config", clusterName, "") }

// ReadOnlyAPIKeySecretName returns the name of the read-only API key Secret.
func ReadOnlyAPIKeySecretName(clusterName string) string { return renderName("read-key", clusterName, "") }

// PrimaryAPIKeySecretName returns the name of the read-write API key Secret.
func PrimaryAPIKeySecretName(clusterName string) string { return renderName("apikey", clusterName, "") }

// CompositeAuthSecretName returns the name of the Secret combining both
// keys, mounted by sidecars that need both scopes.
func CompositeAuthSecretName(clusterName string) string { return renderName("auth", clusterName, "") }

// DisruptionBudgetName returns the name of the PodDisruptionBudget.
func DisruptionBudgetName(clusterName string) string { return renderName("pdb", clusterName, "") }

// BackupJobName returns the name of a one-shot backup Job for the given
// backup resource's suffix (typically its own resource name).
func BackupJobName(clusterName, suffix string) string { return renderName("backup", clusterName, suffix) }

// RestoreJobName returns the name of a one-shot restore Job.
func RestoreJobName(clusterName, suffix string) string { return renderName("restore", clusterName, suffix) }

// BackupCronJobName returns the name of the scheduled-backup CronJob.
func BackupCronJobName(clusterName string) string { return renderName("backupcron", clusterName, "") }
