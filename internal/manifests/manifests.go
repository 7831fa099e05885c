package manifests

import (
	"crypto/rand"
	"encoding/base64"

	"gopkg.in/yaml.v3"

	appsv1 "k8s.io/api/apps/v1"
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	policyv1 "k8s.io/api/policy/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

const (
	httpPort     = 6333
	grpcPort     = 6334
	dataMountDir = "/qdrant/storage"
)

func baseLabels(clusterName string) map[string]string {
	return map[string]string{
		"app.kubernetes.io/name":       "qdrant",
		"app.kubernetes.io/instance":   clusterName,
		"app.kubernetes.io/managed-by": "qdrant-operator",
	}
}

func objectMeta(namespace, name string, labels map[string]string) metav1.ObjectMeta {
	return metav1.ObjectMeta{
		Namespace: namespace,
		Name:      name,
		Labels:    labels,
	}
}

// qdrantConfig mirrors the subset of qdrant's own config.yaml schema this
// operator controls; everything else is left to the image's built-in
// defaults.
type qdrantConfig struct {
	Storage struct {
		StoragePath string `yaml:"storage_path"`
	} `yaml:"storage"`
	Service struct {
		HTTPPort int `yaml:"http_port"`
		GRPCPort int `yaml:"grpc_port"`
	} `yaml:"service"`
	Cluster struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"cluster"`
	TLS *struct {
		Cert string `yaml:"cert"`
		Key  string `yaml:"key"`
	} `yaml:"tls,omitempty"`
}

// RenderConfigObject builds the ConfigMap holding qdrant's static
// configuration derived from the cluster spec (spec.md §4.5 step 2).
func RenderConfigObject(namespace, name string, spec v1alpha1.ClusterSpec) *corev1.ConfigMap {
	labels := baseLabels(name)

	var cfg qdrantConfig
	cfg.Storage.StoragePath = dataMountDir
	cfg.Service.HTTPPort = httpPort
	cfg.Service.GRPCPort = grpcPort
	cfg.Cluster.Enabled = true

	if spec.TLS.Enabled {
		cfg.TLS = &struct {
			Cert string `yaml:"cert"`
			Key  string `yaml:"key"`
		}{Cert: "/qdrant/tls/tls.crt", Key: "/qdrant/tls/tls.key"}
	}

	rendered, err := yaml.Marshal(cfg)
	if err != nil {
		rendered = []byte("# failed to render config: " + err.Error())
	}

	return &corev1.ConfigMap{
		ObjectMeta: objectMeta(namespace, ConfigObjectName(name), labels),
		Data: map[string]string{
			"config.yaml": string(rendered),
		},
	}
}

func randomAPIKey() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf)
}

// RenderReadOnlySecret builds the read-only API key Secret. Callers should
// only create it if it doesn't already exist, since Render* is pure and a
// fresh random key every reconcile would rotate credentials on every
// apply.
func RenderReadOnlySecret(namespace, name string) *corev1.Secret {
	labels := baseLabels(name)
	return &corev1.Secret{
		ObjectMeta: objectMeta(namespace, ReadOnlyAPIKeySecretName(name), labels),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{"api-key": randomAPIKey()},
	}
}

// RenderPrimarySecret builds the read-write API key Secret.
func RenderPrimarySecret(namespace, name string) *corev1.Secret {
	labels := baseLabels(name)
	return &corev1.Secret{
		ObjectMeta: objectMeta(namespace, PrimaryAPIKeySecretName(name), labels),
		Type:       corev1.SecretTypeOpaque,
		StringData: map[string]string{"api-key": randomAPIKey()},
	}
}

// RenderCompositeAuthSecret derives a combined Secret from the read-only
// and primary key values so sidecars needing both scopes mount a single
// object (spec.md §4.5 step 2: "composite auth secret derived from both").
func RenderCompositeAuthSecret(namespace, name string, readOnlyKey, primaryKey []byte) *corev1.Secret {
	labels := baseLabels(name)
	return &corev1.Secret{
		ObjectMeta: objectMeta(namespace, CompositeAuthSecretName(name), labels),
		Type:       corev1.SecretTypeOpaque,
		Data: map[string][]byte{
			"read-api-key":    readOnlyKey,
			"primary-api-key": primaryKey,
		},
	}
}

// RenderHeadlessService builds the StatefulSet's governing headless
// Service.
func RenderHeadlessService(namespace, name string, spec v1alpha1.ClusterSpec) *corev1.Service {
	labels := baseLabels(name)
	return &corev1.Service{
		ObjectMeta: objectMeta(namespace, HeadlessServiceName(name), labels),
		Spec: corev1.ServiceSpec{
			ClusterIP: corev1.ClusterIPNone,
			Selector:  labels,
			Ports:     servicePorts(),
		},
	}
}

// RenderClientService builds the client-facing Service, honoring
// spec.service's requested ServiceType.
func RenderClientService(namespace, name string, spec v1alpha1.ClusterSpec) *corev1.Service {
	labels := baseLabels(name)

	svcType := corev1.ServiceTypeClusterIP
	switch spec.Service {
	case v1alpha1.ServiceNodePort:
		svcType = corev1.ServiceTypeNodePort
	case v1alpha1.ServiceLoadBalancer:
		svcType = corev1.ServiceTypeLoadBalancer
	}

	return &corev1.Service{
		ObjectMeta: objectMeta(namespace, ClientServiceName(name), labels),
		Spec: corev1.ServiceSpec{
			Type:     svcType,
			Selector: labels,
			Ports:    servicePorts(),
		},
	}
}

func servicePorts() []corev1.ServicePort {
	return []corev1.ServicePort{
		{Name: "http", Port: httpPort, TargetPort: intstr.FromInt(httpPort)},
		{Name: "grpc", Port: grpcPort, TargetPort: intstr.FromInt(grpcPort)},
	}
}

// RenderDisruptionBudget builds a PodDisruptionBudget allowing at most one
// voluntary disruption at a time, so a node drain cannot take down a
// majority of the cluster at once.
func RenderDisruptionBudget(namespace, name string) *policyv1.PodDisruptionBudget {
	labels := baseLabels(name)
	maxUnavailable := intstr.FromInt(1)

	return &policyv1.PodDisruptionBudget{
		ObjectMeta: objectMeta(namespace, DisruptionBudgetName(name), labels),
		Spec: policyv1.PodDisruptionBudgetSpec{
			MaxUnavailable: &maxUnavailable,
			Selector:       &metav1.LabelSelector{MatchLabels: labels},
		},
	}
}

// RenderWorkload builds the StatefulSet running qdrant itself, mounting
// the config object, TLS secret (if enabled), and any sidecar containers
// or additional volumes the spec names.
func RenderWorkload(namespace, name string, spec v1alpha1.ClusterSpec) *appsv1.StatefulSet {
	labels := baseLabels(name)

	volumes := []corev1.Volume{
		{
			Name: "config",
			VolumeSource: corev1.VolumeSource{
				ConfigMap: &corev1.ConfigMapVolumeSource{
					LocalObjectReference: corev1.LocalObjectReference{Name: ConfigObjectName(name)},
				},
			},
		},
	}

	volumeMounts := []corev1.VolumeMount{
		{Name: "config", MountPath: "/qdrant/config"},
		{Name: "data", MountPath: dataMountDir},
	}

	if spec.TLS.Enabled {
		volumes = append(volumes, corev1.Volume{
			Name: "tls",
			VolumeSource: corev1.VolumeSource{
				Secret: &corev1.SecretVolumeSource{SecretName: spec.TLS.SecretName},
			},
		})
		volumeMounts = append(volumeMounts, corev1.VolumeMount{Name: "tls", MountPath: "/qdrant/tls"})
	}

	for _, av := range spec.AdditionalVolumes {
		volumes = append(volumes, toCoreVolume(av))
		volumeMounts = append(volumeMounts, corev1.VolumeMount{Name: av.Name, MountPath: av.MountPath})
	}

	containers := append([]corev1.Container{
		{
			Name:  "qdrant",
			Image: spec.Image,
			Ports: []corev1.ContainerPort{
				{Name: "http", ContainerPort: httpPort},
				{Name: "grpc", ContainerPort: grpcPort},
			},
			VolumeMounts: volumeMounts,
			Resources:    toCoreResources(spec.Resources),
			Env:          apiKeyEnv(spec),
		},
	}, spec.SidecarContainers...)

	replicas := spec.Replicas

	pvcTemplates := []corev1.PersistentVolumeClaim{}
	if spec.Persistence.Size != "" {
		pvcTemplates = append(pvcTemplates, corev1.PersistentVolumeClaim{
			ObjectMeta: metav1.ObjectMeta{Name: "data"},
			Spec: corev1.PersistentVolumeClaimSpec{
				AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
				Resources: corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceStorage: mustQuantity(spec.Persistence.Size),
					},
				},
				StorageClassName: nilIfEmpty(spec.Persistence.StorageClassName),
			},
		})
	} else {
		volumes = append(volumes, corev1.Volume{Name: "data", VolumeSource: corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}})
	}

	return &appsv1.StatefulSet{
		ObjectMeta: objectMeta(namespace, name, labels),
		Spec: appsv1.StatefulSetSpec{
			ServiceName: HeadlessServiceName(name),
			Replicas:    &replicas,
			Selector:    &metav1.LabelSelector{MatchLabels: labels},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					Containers:   containers,
					Volumes:      volumes,
					NodeSelector: spec.Placement.NodeSelector,
					Tolerations:  toTolerations(spec.Placement.Tolerations),
				},
			},
			VolumeClaimTemplates: pvcTemplates,
		},
	}
}

func apiKeyEnv(spec v1alpha1.ClusterSpec) []corev1.EnvVar {
	if spec.Apikey == "" || spec.Apikey == "false" {
		return nil
	}
	return []corev1.EnvVar{
		{
			Name: "QDRANT__SERVICE__API_KEY",
			ValueFrom: &corev1.EnvVarSource{
				SecretKeyRef: &corev1.SecretKeySelector{
					LocalObjectReference: corev1.LocalObjectReference{Name: spec.Apikey},
					Key:                  "api-key",
				},
			},
		},
	}
}

func toCoreVolume(av v1alpha1.AdditionalVolume) corev1.Volume {
	v := corev1.Volume{Name: av.Name}

	switch {
	case av.VolumeSource.Secret != nil:
		v.VolumeSource = corev1.VolumeSource{Secret: &corev1.SecretVolumeSource{SecretName: av.VolumeSource.Secret.Name}}
	case av.VolumeSource.ConfigMap != nil:
		v.VolumeSource = corev1.VolumeSource{ConfigMap: &corev1.ConfigMapVolumeSource{
			LocalObjectReference: corev1.LocalObjectReference{Name: av.VolumeSource.ConfigMap.Name},
		}}
	default:
		v.VolumeSource = corev1.VolumeSource{EmptyDir: &corev1.EmptyDirVolumeSource{}}
	}
	return v
}

func toCoreResources(r v1alpha1.ResourceRequirements) corev1.ResourceRequirements {
	out := corev1.ResourceRequirements{
		Requests: corev1.ResourceList{},
		Limits:   corev1.ResourceList{},
	}
	for name, qty := range r.Requests {
		out.Requests[corev1.ResourceName(name)] = mustQuantity(qty)
	}
	for name, qty := range r.Limits {
		out.Limits[corev1.ResourceName(name)] = mustQuantity(qty)
	}
	return out
}

func toTolerations(tolerations []v1alpha1.CoreToleration) []corev1.Toleration {
	out := make([]corev1.Toleration, 0, len(tolerations))
	for _, t := range tolerations {
		out = append(out, corev1.Toleration{
			Key:      t.Key,
			Operator: corev1.TolerationOperator(t.Operator),
			Value:    t.Value,
			Effect:   corev1.TaintEffect(t.Effect),
		})
	}
	return out
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// RenderBackupJob builds a one-shot Job invoking the vector-database
// snapshot-create HTTP call for a QdrantCollectionBackup resource.
func RenderBackupJob(namespace, clusterName, backupName, collectionName, jobImage string) *batchv1.Job {
	labels := baseLabels(clusterName)
	backoffLimit := int32(2)

	return &batchv1.Job{
		ObjectMeta: objectMeta(namespace, BackupJobName(clusterName, backupName), labels),
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:  "backup",
							Image: jobImage,
							Args:  []string{"snapshot", "create", "--collection", collectionName},
						},
					},
				},
			},
		},
	}
}

// RenderRestoreJob builds a one-shot Job invoking the snapshot-recover HTTP
// call for a QdrantCollectionRestore resource.
func RenderRestoreJob(namespace, clusterName, restoreName, collectionName, snapshotName, jobImage string) *batchv1.Job {
	labels := baseLabels(clusterName)
	backoffLimit := int32(2)

	return &batchv1.Job{
		ObjectMeta: objectMeta(namespace, RestoreJobName(clusterName, restoreName), labels),
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:  "restore",
							Image: jobImage,
							Args:  []string{"snapshot", "recover", "--collection", collectionName, "--snapshot", snapshotName},
						},
					},
				},
			},
		},
	}
}

// RenderBackupCronJob builds the CronJob driving scheduled snapshots for a
// collection that carries a spec.snapshots.schedule.
func RenderBackupCronJob(namespace, clusterName, collectionName, schedule, jobImage string) *batchv1.CronJob {
	labels := baseLabels(clusterName)
	backoffLimit := int32(2)

	return &batchv1.CronJob{
		ObjectMeta: objectMeta(namespace, BackupCronJobName(clusterName), labels),
		Spec: batchv1.CronJobSpec{
			Schedule: schedule,
			JobTemplate: batchv1.JobTemplateSpec{
				Spec: batchv1.JobSpec{
					BackoffLimit: &backoffLimit,
					Template: corev1.PodTemplateSpec{
						ObjectMeta: metav1.ObjectMeta{Labels: labels},
						Spec: corev1.PodSpec{
							RestartPolicy: corev1.RestartPolicyNever,
							Containers: []corev1.Container{
								{
									Name:  "scheduled-backup",
									Image: jobImage,
									Args:  []string{"snapshot", "create", "--collection", collectionName},
								},
							},
						},
					},
				},
			},
		},
	}
}

func mustQuantity(s string) resource.Quantity {
	q, err := resource.ParseQuantity(s)
	if err != nil {
		return resource.Quantity{}
	}
	return q
}
