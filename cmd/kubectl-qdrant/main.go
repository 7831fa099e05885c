// Command kubectl-qdrant is a read-only kubectl plugin for inspecting
// QdrantCluster and QdrantCollection resources, grounded on the teacher's
// kubectl-frisbee entrypoint.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/qdrant-operator/operator/cmd/kubectl-qdrant/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
