// Package cluster wraps the Kubernetes control plane behind the small set of
// calls the sidecar needs.
package cluster

import (
	"context"
	"encoding/json"
	"fmt"

	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/kubernetes"
)

// Client is the control-plane handle shared by the poller and every HTTP
// handler. Implementations must be safe for concurrent use.
type Client interface {
	// ServerVersion returns the API server GitVersion.
	ServerVersion(ctx context.Context) (string, error)

	// ListWorkloads returns every Deployment across all namespaces.
	ListWorkloads(ctx context.Context) ([]Workload, error)

	// CreateNetworkPolicy submits the policy to its namespace.
	CreateNetworkPolicy(ctx context.Context, policy *networkingv1.NetworkPolicy) error
}

// Workload is a point-in-time view of a Deployment's replica counts.
// Nil counts mean the field was absent upstream.
type Workload struct {
	Namespace         string
	Name              string
	DesiredReplicas   *int32
	AvailableReplicas *int32
}

// KubeClient implements Client using a client-go clientset.
type KubeClient struct {
	clientset kubernetes.Interface
}

// NewKubeClient creates a Client backed by clientset.
func NewKubeClient(clientset kubernetes.Interface) *KubeClient {
	return &KubeClient{clientset: clientset}
}

// ServerVersion queries the /version endpoint for the server version. The
// request is bound to ctx.
func (c *KubeClient) ServerVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", classify("get server version", err)
	}

	disc := c.clientset.Discovery()
	rc := disc.RESTClient()
	if rc == nil {
		// Fake clientsets carry no REST client.
		info, err := disc.ServerVersion()
		if err != nil {
			return "", classify("get server version", err)
		}
		return info.GitVersion, nil
	}

	body, err := rc.Get().AbsPath("/version").DoRaw(ctx)
	if err != nil {
		return "", classify("get server version", err)
	}
	var info version.Info
	if err := json.Unmarshal(body, &info); err != nil {
		return "", &ConnectivityError{Op: "get server version", Err: fmt.Errorf("unable to parse the server version: %w", err)}
	}
	return info.GitVersion, nil
}

// ListWorkloads lists Deployments in all namespaces.
func (c *KubeClient) ListWorkloads(ctx context.Context) ([]Workload, error) {
	list, err := c.clientset.AppsV1().Deployments(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, classify("list deployments", err)
	}

	workloads := make([]Workload, 0, len(list.Items))
	for i := range list.Items {
		d := &list.Items[i]
		available := d.Status.AvailableReplicas
		workloads = append(workloads, Workload{
			Namespace:         d.Namespace,
			Name:              d.Name,
			DesiredReplicas:   d.Spec.Replicas,
			AvailableReplicas: &available,
		})
	}
	return workloads, nil
}

// CreateNetworkPolicy creates policy in policy.Namespace.
func (c *KubeClient) CreateNetworkPolicy(ctx context.Context, policy *networkingv1.NetworkPolicy) error {
	if policy == nil {
		return fmt.Errorf("network policy is nil")
	}
	_, err := c.clientset.NetworkingV1().NetworkPolicies(policy.Namespace).Create(ctx, policy, metav1.CreateOptions{})
	if err != nil {
		return classify(fmt.Sprintf("create network policy %s/%s", policy.Namespace, policy.Name), err)
	}
	return nil
}
