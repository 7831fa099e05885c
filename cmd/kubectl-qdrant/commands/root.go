// Package commands implements the kubectl-qdrant plugin's subcommands: a
// read-only client over QdrantCluster/QdrantCollection objects, grounded on
// the teacher's kubectl-frisbee command tree (cmd/kubectl-frisbee/commands).
package commands

import (
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

var namespace string

// NewRootCmd builds the kubectl-qdrant command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubectl-qdrant",
		Short: "Inspect QdrantCluster and QdrantCollection resources",
		Long:  `A read-only client for the resources managed by the qdrant-operator.`,
	}

	cmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "default", "namespace to query")

	cmd.AddCommand(NewGetCmd())
	cmd.AddCommand(NewDescribeCmd())

	return cmd
}

// newClient builds a controller-runtime client from the ambient kubeconfig,
// the same way a kubectl plugin reaches the API server.
func newClient() (client.Client, error) {
	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return nil, err
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}

	return client.New(cfg, client.Options{Scheme: scheme})
}
