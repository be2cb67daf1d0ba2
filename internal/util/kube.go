// Wrapper to build the K8s client.

package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// clientUserAgent identifies the sidecar in API server audit logs.
const clientUserAgent = "kubepulse"

// BuildRestConfig builds a Kubernetes rest config.
//
// Priority:
// 1. explicit kubeconfig path
// 2. in-cluster service account
//
// Failures are returned as *cluster.ConfigError.
func BuildRestConfig(kubeconfig string) (*rest.Config, error) {
	var (
		cfg *rest.Config
		err error
	)

	if kubeconfig != "" {
		path := expandTilde(kubeconfig)
		cfg, err = clientcmd.BuildConfigFromFlags("", path)
		if err != nil {
			return nil, &cluster.ConfigError{Err: fmt.Errorf("kubeconfig %s: %w", path, err)}
		}
	} else {
		cfg, err = rest.InClusterConfig()
		if err != nil {
			return nil, &cluster.ConfigError{Err: fmt.Errorf("in-cluster config: %w", err)}
		}
	}

	cfg.UserAgent = clientUserAgent
	return cfg, nil
}

// BuildKubeClient builds the cluster adapter from a kubeconfig path, or from
// the in-cluster service account when the path is empty.
func BuildKubeClient(kubeconfig string) (*cluster.KubeClient, error) {
	cfg, err := BuildRestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, &cluster.ConfigError{Err: fmt.Errorf("new clientset: %w", err)}
	}
	return cluster.NewKubeClient(clientset), nil
}

// expandTilde resolves a leading "~/" against the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
