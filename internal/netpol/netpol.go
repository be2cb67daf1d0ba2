// Package netpol builds and submits isolation NetworkPolicies.
package netpol

import (
	"context"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"go.uber.org/zap"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// CreationError wraps a failed submission. Its message is the adapter's
// message unchanged.
type CreationError struct {
	Err error
}

func (e *CreationError) Error() string { return e.Err.Error() }

func (e *CreationError) Unwrap() error { return e.Err }

// Build returns a policy selecting pods by exactly labels and restricting
// both ingress and egress. It carries no rules, so selected pods are fully
// isolated. An empty label set selects every pod in the namespace.
func Build(name, namespace string, labels map[string]string) *networkingv1.NetworkPolicy {
	return &networkingv1.NetworkPolicy{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: networkingv1.NetworkPolicySpec{
			PodSelector: metav1.LabelSelector{MatchLabels: labels},
			PolicyTypes: []networkingv1.PolicyType{
				networkingv1.PolicyTypeIngress,
				networkingv1.PolicyTypeEgress,
			},
		},
	}
}

// Creator submits isolation policies to the control plane.
type Creator struct {
	client cluster.Client
	log    *zap.Logger
}

// NewCreator creates a Creator over client.
func NewCreator(client cluster.Client, log *zap.Logger) *Creator {
	return &Creator{client: client, log: log}
}

// Create builds the policy and submits it synchronously.
func (c *Creator) Create(ctx context.Context, name, namespace string, labels map[string]string) error {
	policy := Build(name, namespace, labels)
	if err := c.client.CreateNetworkPolicy(ctx, policy); err != nil {
		c.log.Error("failed to create network policy",
			zap.String("policy", name),
			zap.String("namespace", namespace),
			zap.Error(err),
		)
		return &CreationError{Err: err}
	}

	c.log.Info("network policy created",
		zap.String("policy", name),
		zap.String("namespace", namespace),
		zap.Any("pod_labels", labels),
	)
	return nil
}
