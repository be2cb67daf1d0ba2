package util

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"github.com/ppiankov/kubepulse/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRestConfig_MissingKubeconfig(t *testing.T) {
	_, err := BuildRestConfig(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var cfgErr *cluster.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBuildRestConfig_NotInCluster(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "")
	t.Setenv("KUBERNETES_SERVICE_PORT", "")

	_, err := BuildRestConfig("")
	var cfgErr *cluster.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "in-cluster config")
}

func TestBuildKubeClient_FromKubeconfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	kubeconfig := `apiVersion: v1
kind: Config
clusters:
- name: test
  cluster:
    server: https://127.0.0.1:6443
contexts:
- name: test
  context:
    cluster: test
    user: test
current-context: test
users:
- name: test
  user:
    token: abc
`
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0o600))

	cfg, err := BuildRestConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://127.0.0.1:6443", cfg.Host)
	assert.Equal(t, "kubepulse", cfg.UserAgent)

	client, err := BuildKubeClient(path)
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitRuntimeError, ExitCode(errors.New("boom")))
	assert.Equal(t, ExitInvalidInput, ExitCode(WithExitCode(ExitInvalidInput, errors.New("bad flag"))))

	wrapped := WithExitCode(ExitPolicyFail, errors.New("unhealthy"))
	assert.Equal(t, "unhealthy", wrapped.Error())
	assert.Nil(t, WithExitCode(ExitPolicyFail, nil))
}

func TestShutdownSignals(t *testing.T) {
	sigs := ShutdownSignals()
	require.Len(t, sigs, 2)
	assert.Equal(t, os.Interrupt, sigs[0])
}

func int32Ptr(v int32) *int32 { return &v }

func TestObfuscator_Report(t *testing.T) {
	report := status.Report{
		Status: status.VerdictFailed,
		Deployments: []status.Item{
			{Namespace: "billing", Name: "api", Status: "Ok", DesiredReplicas: int32Ptr(1), AvailableReplicas: int32Ptr(1)},
			{Namespace: "billing", Name: "worker", Status: "Failed", DesiredReplicas: int32Ptr(2), AvailableReplicas: int32Ptr(0)},
		},
	}

	o := NewObfuscator(true)
	got := o.Report(report)

	require.Len(t, got.Deployments, 2)
	assert.Equal(t, status.VerdictFailed, got.Status)
	assert.Regexp(t, `^ns-[0-9a-f]{8}$`, got.Deployments[0].Namespace)
	assert.Regexp(t, `^wl-[0-9a-f]{8}$`, got.Deployments[0].Name)
	assert.Equal(t, got.Deployments[0].Namespace, got.Deployments[1].Namespace)
	assert.NotEqual(t, got.Deployments[0].Name, got.Deployments[1].Name)
	assert.Equal(t, "Failed", got.Deployments[1].Status)

	// input untouched
	assert.Equal(t, "billing", report.Deployments[0].Namespace)
}

func TestObfuscator_HidesWorkloadWithoutDesiredCount(t *testing.T) {
	report := status.Report{
		Status: status.VerdictFailed,
		Deployments: []status.Item{
			{Namespace: "billing", Name: "unset", Status: "Failed", AvailableReplicas: int32Ptr(0)},
		},
	}
	got := NewObfuscator(true).Report(report)
	assert.Regexp(t, `^ns-[0-9a-f]{8}$`, got.Deployments[0].Namespace)
	assert.Regexp(t, `^wl-[0-9a-f]{8}$`, got.Deployments[0].Name)
	assert.Nil(t, got.Deployments[0].DesiredReplicas)
}

func TestObfuscator_KeepsFetchError(t *testing.T) {
	report := status.FromError(errors.New("connection refused"))
	got := NewObfuscator(true).Report(report)
	assert.Equal(t, report, got)
}

func TestObfuscator_Disabled(t *testing.T) {
	o := NewObfuscator(false)
	assert.Equal(t, "billing", o.Namespace("billing"))
	assert.Equal(t, "", NewObfuscator(true).Workload(""))
}

func TestObfuscator_SameNameDifferentKinds(t *testing.T) {
	o := NewObfuscator(true)
	assert.NotEqual(t, o.Namespace("api"), o.Workload("api"))
	assert.Equal(t, o.Workload("api"), o.Workload("api"))
}
