// Command qdrant-operator is the manager entrypoint: it wires leader
// election (C1), watch loops (C2), event routing (C3), the debounced work
// queue (C4), the reconcilers (C5), finalizer cleanup (C6), status writes
// (C7), workload readiness tracking (C8), and periodic resync (C9) into one
// running process, plus the /metrics and /healthz HTTP surface.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bombsimon/logrusr/v4"
	"github.com/dimiro1/banner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/qdrant-operator/operator/api/v1alpha1"
	"github.com/qdrant-operator/operator/internal/apierrors"
	"github.com/qdrant-operator/operator/internal/finalizer"
	"github.com/qdrant-operator/operator/internal/leaselock"
	"github.com/qdrant-operator/operator/internal/metrics"
	"github.com/qdrant-operator/operator/internal/readiness"
	"github.com/qdrant-operator/operator/internal/reconciler"
	"github.com/qdrant-operator/operator/internal/resync"
	"github.com/qdrant-operator/operator/internal/router"
	"github.com/qdrant-operator/operator/internal/state"
	"github.com/qdrant-operator/operator/internal/statuswriter"
	intwatch "github.com/qdrant-operator/operator/internal/watch"
	"github.com/qdrant-operator/operator/internal/workqueue"
)

const bannerText = `
{{ .AnsiColor.Green }}qdrant-operator{{ .AnsiColor.Default }}
`

// ReconcileErrorRetryDelay is the fixed retry delay spec.md §7's
// propagation policy assigns to a reconcile error not attributable to a
// specific terminal status: schedule(key) with a 10s delay.
const ReconcileErrorRetryDelay = 10 * time.Second

var (
	clusterGVR = schema.GroupVersionResource{Group: v1alpha1.GroupName, Version: "v1alpha1", Resource: "qdrantclusters"}
	collGVR    = schema.GroupVersionResource{Group: v1alpha1.GroupName, Version: "v1alpha1", Resource: "qdrantcollections"}
	backupGVR  = schema.GroupVersionResource{Group: v1alpha1.GroupName, Version: "v1alpha1", Resource: "qdrantcollectionbackups"}
	restoreGVR = schema.GroupVersionResource{Group: v1alpha1.GroupName, Version: "v1alpha1", Resource: "qdrantcollectionrestores"}
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	cmd.SetContext(ctx)

	if err := cmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

type options struct {
	metricsAddr string
	jobImage    string
	namespace   string
	workers     int
	debug       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "qdrant-operator",
		Short: "Manages QdrantCluster and QdrantCollection custom resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", envOrDefault("METRICS_ADDR", ":8080"), "address to serve /metrics and /healthz on")
	cmd.Flags().StringVar(&opts.jobImage, "job-image", envOrDefault("JOB_IMAGE", "qdrant-operator/jobrunner:latest"), "image used for backup/restore/snapshot Jobs")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "number of reconcile worker goroutines")
	cmd.Flags().BoolVar(&opts.debug, "debug", os.Getenv("OPERATOR_DEBUG") != "", "enable debug-level logging")

	return cmd
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func run(ctx context.Context, opts *options) error {
	if opts.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	banner.InitString(os.Stdout, true, true, bannerText)

	podName := os.Getenv("POD_NAME")
	if podName == "" {
		return fmt.Errorf("POD_NAME must be set (fatal, per the operator identity requirement)")
	}
	opts.namespace = os.Getenv("POD_NAMESPACE")
	if opts.namespace == "" {
		return fmt.Errorf("POD_NAMESPACE must be set (fatal, per the operator identity requirement)")
	}

	ctrl.SetLogger(logrusr.New(logrus.StandardLogger()))

	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("load kubeconfig: %w", err)
	}

	scheme := runtime.NewScheme()
	if err := clientgoscheme.AddToScheme(scheme); err != nil {
		return err
	}
	if err := v1alpha1.AddToScheme(scheme); err != nil {
		return err
	}

	c, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	dyn, err := dynamic.NewForConfig(cfg)
	if err != nil {
		return fmt.Errorf("build dynamic client: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return fmt.Errorf("build clientset: %w", err)
	}

	reg := prometheus.NewRegistry()
	mc := metrics.New(reg)

	store := state.New()
	queue := workqueue.New("qdrant-operator")

	statusWriter := &statuswriter.Writer{Client: c, Store: store}

	readinessTracker := readiness.NewTracker(dyn, func(ctx context.Context, key state.Key, running, healthy bool) error {
		var cr v1alpha1.QdrantCluster
		if err := c.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, &cr); err != nil {
			return err
		}

		phase := v1alpha1.PhaseRunning
		if healthy {
			phase = v1alpha1.PhaseHealthy
		}

		return statusWriter.Write(ctx, key, &cr, func(o client.Object) {
			o.(*v1alpha1.QdrantCluster).Status.QdrantStatus = phase
		})
	})
	statusWriter.Replay = replayFunc(store, queue)

	clusterReconciler := &reconciler.ClusterReconciler{Client: c, Status: statusWriter, Readiness: readinessTracker, Metrics: mc}
	collectionReconciler := &reconciler.CollectionReconciler{Client: c, Status: statusWriter, Queue: queue, JobImage: opts.jobImage}

	finalizerTracker := finalizer.NewTracker(c, store)
	clusterFinalizer := &reconciler.ClusterFinalizer{Client: c, Tracker: finalizerTracker, Readiness: readinessTracker}
	collectionFinalizer := &reconciler.CollectionFinalizer{Client: c, Tracker: finalizerTracker}

	clusterRouter := &router.Router{
		Kind: "QdrantCluster", Client: c, Store: store, Queue: queue,
		Validate: router.ValidateCluster, Status: statusWriter, Finalizer: clusterFinalizer,
	}
	collectionRouter := &router.Router{
		Kind: "QdrantCollection", Client: c, Store: store, Queue: queue,
		Validate: router.ValidateCollection, Status: statusWriter, Finalizer: collectionFinalizer,
		Default: router.DefaultFromTemplate(c, opts.namespace),
	}
	backupRouter := &router.Router{
		Kind: "QdrantCollectionBackup", Client: c, Store: store, Queue: queue,
		Validate: router.ValidateCollectionBackup, Status: statusWriter,
	}
	restoreRouter := &router.Router{
		Kind: "QdrantCollectionRestore", Client: c, Store: store, Queue: queue,
		Validate: router.ValidateCollectionRestore, Status: statusWriter,
	}

	sweeper := &resync.Sweeper{Client: c, Queue: queue, Store: store, Metrics: mc}

	stopHTTP := serveHTTP(opts.metricsAddr, reg)
	defer stopHTTP()

	lock := leaselock.New(leaselock.DefaultConfig(opts.namespace, "qdrant-operator-lock", podName))
	leaselock.EnsureLeaseObject(ctx, clientset, opts.namespace, "qdrant-operator-lock")

	var loopCtx context.Context
	var stopLoops context.CancelFunc

	onStarted := func(startCtx context.Context) {
		loopCtx, stopLoops = context.WithCancel(context.Background())
		mc.SetLeader(true)

		go (&intwatch.Loop{Client: dyn, GVR: clusterGVR, Namespace: opts.namespace, Handler: routerHandler(clusterRouter), OnRestart: onWatchRestart(mc, "QdrantCluster")}).Run(loopCtx)
		go (&intwatch.Loop{Client: dyn, GVR: collGVR, Namespace: opts.namespace, Handler: routerHandler(collectionRouter), OnRestart: onWatchRestart(mc, "QdrantCollection")}).Run(loopCtx)
		go (&intwatch.Loop{Client: dyn, GVR: backupGVR, Namespace: opts.namespace, Handler: routerHandler(backupRouter), OnRestart: onWatchRestart(mc, "QdrantCollectionBackup")}).Run(loopCtx)
		go (&intwatch.Loop{Client: dyn, GVR: restoreGVR, Namespace: opts.namespace, Handler: routerHandler(restoreRouter), OnRestart: onWatchRestart(mc, "QdrantCollectionRestore")}).Run(loopCtx)

		go sweeper.Run(loopCtx)

		for i := 0; i < opts.workers; i++ {
			go worker(loopCtx, queue, store, mc, c, clusterReconciler, collectionReconciler)
		}

		mc.ActiveWatches.Set(4)
		<-startCtx.Done()
	}

	onStopped := func() {
		mc.SetLeader(false)
		store.SetShuttingDown()
		if stopLoops != nil {
			stopLoops()
		}
		queue.ShutDown()
	}

	if err := lock.Run(ctx, clientset, onStarted, onStopped); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}

// routerHandler adapts a *router.Router into an intwatch.EventHandler. The
// apiserver's own Error events never reach here: intwatch.Loop intercepts
// them to drive its own reconnect/backoff decision before Handler is called.
func routerHandler(r *router.Router) intwatch.EventHandler {
	return func(evType watch.EventType, obj *unstructured.Unstructured) {
		r.Handle(context.Background(), evType, obj)
	}
}

// onWatchRestart increments the watch_restarts_total counter, labeled by
// kind, whenever a watch stream for that kind is re-established.
func onWatchRestart(mc *metrics.Collectors, kind string) func(cause error) {
	return func(cause error) {
		mc.WatchRestarts.WithLabelValues(kind).Inc()
	}
}

// replayFunc re-dispatches a buffered pending event through the correct
// router once a status write's lock clears. It only needs to re-enqueue the
// key: the router's own dedup/cache bookkeeping was already advanced when
// the event was first buffered.
func replayFunc(store *state.Store, queue *workqueue.Queue) statuswriter.ReplayFunc {
	return func(ctx context.Context, key state.Key, ev state.PendingEvent) {
		queue.Schedule(key)
	}
}

// worker drains queue, dispatching each key to the reconciler for its kind
// under the single-flight activeSet guard, until the queue shuts down.
func worker(ctx context.Context, queue *workqueue.Queue, store *state.Store, mc *metrics.Collectors, c client.Client, clusterReconciler *reconciler.ClusterReconciler, collectionReconciler *reconciler.CollectionReconciler) {
	for {
		key, shutdown := queue.Get()
		if shutdown {
			return
		}

		if !store.TryStart(key) {
			queue.Done(key)
			continue
		}

		start := time.Now()
		err := dispatch(ctx, c, key, clusterReconciler, collectionReconciler)
		mc.ObserveReconcile(key.Kind, resultLabel(err), time.Since(start).Seconds())

		if err != nil {
			mc.ErrorsTotal.WithLabelValues(string(apierrors.KindOf(err))).Inc()
			logrus.WithField("kind", key.Kind).Warnf("%s/%s: reconcile error, retrying in %s: %v", key.Namespace, key.Name, ReconcileErrorRetryDelay, err)
			queue.ScheduleAfter(key, ReconcileErrorRetryDelay)
		}

		store.Finish(key)
		queue.Done(key)
	}
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func dispatch(ctx context.Context, c client.Client, key state.Key, clusterReconciler *reconciler.ClusterReconciler, collectionReconciler *reconciler.CollectionReconciler) error {
	switch key.Kind {
	case "QdrantCluster":
		var cr v1alpha1.QdrantCluster
		if err := c.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, &cr); err != nil {
			return client.IgnoreNotFound(err)
		}
		if cr.Spec.Suspend != nil && *cr.Spec.Suspend {
			return nil
		}
		return clusterReconciler.ReconcileCluster(ctx, key, &cr)

	case "QdrantCollection":
		var col v1alpha1.QdrantCollection
		if err := c.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, &col); err != nil {
			return client.IgnoreNotFound(err)
		}
		return collectionReconciler.ReconcileCollection(ctx, key, &col)

	case "QdrantCollectionBackup":
		var backup v1alpha1.QdrantCollectionBackup
		if err := c.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, &backup); err != nil {
			return client.IgnoreNotFound(err)
		}
		return collectionReconciler.ReconcileBackup(ctx, key, &backup)

	case "QdrantCollectionRestore":
		var restore v1alpha1.QdrantCollectionRestore
		if err := c.Get(ctx, client.ObjectKey{Namespace: key.Namespace, Name: key.Name}, &restore); err != nil {
			return client.IgnoreNotFound(err)
		}
		return collectionReconciler.ReconcileRestore(ctx, key, &restore)

	default:
		return fmt.Errorf("unknown resource kind %q", key.Kind)
	}
}

// serveHTTP starts the /metrics and /healthz endpoints in the background and
// returns a func that shuts the server down gracefully.
func serveHTTP(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("metrics server exited: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
