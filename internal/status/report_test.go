package status

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func int32Ptr(v int32) *int32 { return &v }

func workload(ns, name string, desired, available *int32) cluster.Workload {
	return cluster.Workload{Namespace: ns, Name: name, DesiredReplicas: desired, AvailableReplicas: available}
}

func TestAggregate_Empty(t *testing.T) {
	report := Aggregate(nil)
	assert.Equal(t, VerdictOk, report.Status)
	assert.NotNil(t, report.Deployments)
	assert.Empty(t, report.Deployments)
	assert.True(t, report.Healthy())
}

func TestAggregate_Verdicts(t *testing.T) {
	tests := []struct {
		name      string
		workloads []cluster.Workload
		want      Verdict
	}{
		{
			"all ready",
			[]cluster.Workload{
				workload("a", "one", int32Ptr(2), int32Ptr(2)),
				workload("b", "two", int32Ptr(0), int32Ptr(0)),
			},
			VerdictOk,
		},
		{
			"one short",
			[]cluster.Workload{
				workload("a", "one", int32Ptr(2), int32Ptr(2)),
				workload("b", "two", int32Ptr(3), int32Ptr(1)),
			},
			VerdictFailed,
		},
		{
			"surplus is not ok",
			[]cluster.Workload{workload("a", "surge", int32Ptr(2), int32Ptr(3))},
			VerdictFailed,
		},
		{
			"scaled to zero with nothing available",
			[]cluster.Workload{workload("a", "idle", int32Ptr(0), nil)},
			VerdictOk,
		},
		{
			"unset desired never matches",
			[]cluster.Workload{workload("a", "default", nil, int32Ptr(1))},
			VerdictFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Aggregate(tt.workloads)
			assert.Equal(t, tt.want, report.Status)
			require.Len(t, report.Deployments, len(tt.workloads))

			allOk := true
			for _, item := range report.Deployments {
				allOk = allOk && item.Healthy()
			}
			assert.Equal(t, allOk, report.Healthy())
		})
	}
}

func TestAggregate_AbsentAvailableEqualsZero(t *testing.T) {
	absent := Aggregate([]cluster.Workload{workload("ns", "app", int32Ptr(1), nil)})
	zero := Aggregate([]cluster.Workload{workload("ns", "app", int32Ptr(1), int32Ptr(0))})
	assert.Equal(t, zero, absent)
	assert.Equal(t, int32(0), *absent.Deployments[0].AvailableReplicas)
	assert.Equal(t, "Failed", absent.Deployments[0].Status)
}

func TestAggregate_AbsentDesiredStaysNull(t *testing.T) {
	report := Aggregate([]cluster.Workload{
		workload("ns", "unset", nil, nil),
		workload("ns", "unset-with-pods", nil, int32Ptr(1)),
	})
	assert.Equal(t, VerdictFailed, report.Status)
	for _, item := range report.Deployments {
		assert.Nil(t, item.DesiredReplicas, item.Name)
		assert.Equal(t, "Failed", item.Status, item.Name)
		assert.False(t, item.IsFetchError())
	}

	data, err := json.Marshal(report.Deployments[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"namespace": "ns",
		"name": "unset",
		"status": "Failed",
		"desired_replicas": null,
		"available_replicas": 0
	}`, string(data))
}

func TestAggregate_DoesNotAliasInput(t *testing.T) {
	desired := int32(2)
	w := workload("ns", "app", &desired, int32Ptr(2))
	report := Aggregate([]cluster.Workload{w})
	desired = 5
	assert.Equal(t, int32(2), *report.Deployments[0].DesiredReplicas)
}

func TestAggregate_PreservesOrder(t *testing.T) {
	report := Aggregate([]cluster.Workload{
		workload("z", "last", int32Ptr(1), int32Ptr(1)),
		workload("a", "first", int32Ptr(1), int32Ptr(1)),
	})
	require.Len(t, report.Deployments, 2)
	assert.Equal(t, "last", report.Deployments[0].Name)
	assert.Equal(t, "first", report.Deployments[1].Name)
}

func TestFromError(t *testing.T) {
	report := FromError(errors.New("connection refused"))
	assert.Equal(t, VerdictFailed, report.Status)
	require.Len(t, report.Deployments, 1)

	item := report.Deployments[0]
	assert.Equal(t, "Unknown", item.Namespace)
	assert.Equal(t, "Error fetching deployments", item.Name)
	assert.Equal(t, "Failed: connection refused", item.Status)
	assert.Nil(t, item.DesiredReplicas)
	assert.Nil(t, item.AvailableReplicas)
	assert.True(t, item.IsFetchError())
}

func TestReport_JSONShape(t *testing.T) {
	data, err := json.Marshal(FromError(errors.New("boom")))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"Status": "Failed",
		"Deployments": [{
			"namespace": "Unknown",
			"name": "Error fetching deployments",
			"status": "Failed: boom",
			"desired_replicas": null,
			"available_replicas": null
		}]
	}`, string(data))

	data, err = json.Marshal(Aggregate(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Status":"Ok","Deployments":[]}`, string(data))
}

func TestAggregator_Report(t *testing.T) {
	client := cluster.NewMockClient("v1.30.2",
		workload("billing", "api", int32Ptr(3), int32Ptr(3)),
		workload("web", "frontend", int32Ptr(2), int32Ptr(1)),
	)

	report := NewAggregator(client, zap.NewNop()).Report(context.Background())
	assert.Equal(t, VerdictFailed, report.Status)
	require.Len(t, report.Deployments, 2)
	assert.Equal(t, "Ok", report.Deployments[0].Status)
	assert.Equal(t, "Failed", report.Deployments[1].Status)
	assert.Equal(t, 1, client.ListCalls())
}

func TestAggregator_Report_FetchError(t *testing.T) {
	client := cluster.NewMockClient("v1.30.2")
	client.ListError = &cluster.ConnectivityError{Op: "list deployments", Err: errors.New("i/o timeout")}

	report := NewAggregator(client, zap.NewNop()).Report(context.Background())
	assert.Equal(t, VerdictFailed, report.Status)
	require.Len(t, report.Deployments, 1)
	assert.Contains(t, report.Deployments[0].Status, "i/o timeout")
}
