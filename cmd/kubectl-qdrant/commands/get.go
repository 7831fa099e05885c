package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

// NewGetCmd builds the "get clusters"/"get collections" command pair,
// grounded on the teacher's NewGetCmd (cmd/kubectl-frisbee/commands/get.go).
func NewGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <clusters|collections>",
		Aliases: []string{"g"},
		Short:   "List clusters or collections",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "clusters",
		Aliases: []string{"cluster", "cl"},
		Short:   "List QdrantCluster resources",
		RunE:    runGetClusters,
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "collections",
		Aliases: []string{"collection", "col"},
		Short:   "List QdrantCollection resources",
		RunE:    runGetCollections,
	})

	return cmd
}

func runGetClusters(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var list v1alpha1.QdrantClusterList
	if err := c.List(context.Background(), &list, client.InNamespace(namespace)); err != nil {
		return fmt.Errorf("list clusters: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Status", "Replicas", "Image"})

	for _, cr := range list.Items {
		table.Append([]string{cr.Name, colorizePhase(cr.Status.QdrantStatus), fmt.Sprintf("%d", cr.Spec.Replicas), cr.Spec.Image})
	}

	table.Render()
	return nil
}

func runGetCollections(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var list v1alpha1.QdrantCollectionList
	if err := c.List(context.Background(), &list, client.InNamespace(namespace)); err != nil {
		return fmt.Errorf("list collections: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Name", "Status", "Cluster", "Vector Size"})

	for _, col := range list.Items {
		table.Append([]string{col.Name, colorizePhase(col.Status.QdrantStatus), col.Spec.Cluster, fmt.Sprintf("%d", col.Spec.VectorSize)})
	}

	table.Render()
	return nil
}

func colorizePhase(phase v1alpha1.Phase) string {
	switch phase {
	case v1alpha1.PhaseHealthy, v1alpha1.PhaseRunning:
		return color.Green.Sprint(string(phase))
	case v1alpha1.PhaseError:
		return color.Red.Sprint(string(phase))
	case v1alpha1.PhasePending, v1alpha1.PhaseOperationInProgress:
		return color.Yellow.Sprint(string(phase))
	default:
		return string(phase)
	}
}
