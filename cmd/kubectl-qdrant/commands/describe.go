package commands

import (
	"context"
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/qdrant-operator/operator/api/v1alpha1"
)

// NewDescribeCmd builds the "describe cluster <name>" and "describe
// collection <name>" commands, printing the
// full status envelope the way a human debugging a stuck rollout would want.
func NewDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <clusters|collections> <name>",
		Short: "Show the full status of a single resource",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "cluster <name>",
		Aliases: []string{"clusters", "cl"},
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribeCluster,
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "collection <name>",
		Aliases: []string{"collections", "col"},
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribeCollection,
	})

	return cmd
}

func runDescribeCluster(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var cr v1alpha1.QdrantCluster
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: namespace, Name: args[0]}, &cr); err != nil {
		return fmt.Errorf("get cluster %s/%s: %w", namespace, args[0], err)
	}

	fmt.Printf("%s %s/%s\n", color.Bold.Sprint("Cluster:"), namespace, cr.Name)
	fmt.Printf("  Status:             %s\n", colorizePhase(cr.Status.QdrantStatus))
	fmt.Printf("  Replicas (desired): %d\n", cr.Spec.Replicas)
	fmt.Printf("  Image:              %s\n", cr.Spec.Image)
	fmt.Printf("  ObservedGeneration: %d\n", cr.Status.ObservedGeneration)
	fmt.Printf("  LastAppliedHash:    %s\n", cr.Status.LastAppliedHash)
	if cr.Status.Reason != "" {
		fmt.Printf("  Reason:             %s\n", cr.Status.Reason)
	}
	if cr.Status.ErrorMessage != "" {
		fmt.Printf("  Error:              %s\n", color.Red.Sprint(cr.Status.ErrorMessage))
	}
	if cr.Status.CleanupPhase != "" {
		fmt.Printf("  CleanupPhase:       %s (attempts: %d)\n", cr.Status.CleanupPhase, cr.Status.CleanupAttempts)
	}

	printConditions(cr.Status.Conditions)
	return nil
}

func runDescribeCollection(cmd *cobra.Command, args []string) error {
	c, err := newClient()
	if err != nil {
		return err
	}

	var col v1alpha1.QdrantCollection
	if err := c.Get(context.Background(), client.ObjectKey{Namespace: namespace, Name: args[0]}, &col); err != nil {
		return fmt.Errorf("get collection %s/%s: %w", namespace, args[0], err)
	}

	fmt.Printf("%s %s/%s\n", color.Bold.Sprint("Collection:"), namespace, col.Name)
	fmt.Printf("  Status:             %s\n", colorizePhase(col.Status.QdrantStatus))
	fmt.Printf("  Cluster:            %s\n", col.Spec.Cluster)
	fmt.Printf("  VectorSize:         %d\n", col.Spec.VectorSize)
	fmt.Printf("  ShardNumber:        %d\n", col.Spec.ShardNumber)
	fmt.Printf("  ReplicationFactor:  %d\n", col.Spec.ReplicationFactor)
	fmt.Printf("  ObservedGeneration: %d\n", col.Status.ObservedGeneration)
	if col.Status.Reason != "" {
		fmt.Printf("  Reason:             %s\n", col.Status.Reason)
	}
	if col.Status.ErrorMessage != "" {
		fmt.Printf("  Error:              %s\n", color.Red.Sprint(col.Status.ErrorMessage))
	}

	printConditions(col.Status.Conditions)
	return nil
}

func printConditions(conditions []metav1.Condition) {
	if len(conditions) == 0 {
		return
	}

	fmt.Println("  Conditions:")
	for _, cond := range conditions {
		fmt.Printf("    %-8s %-6s %-20s %s\n", cond.Type, cond.Status, cond.Reason, cond.Message)
	}
}
