// Package status turns Deployment replica counts into a health report.
package status

import (
	"context"
	"fmt"

	"github.com/ppiankov/kubepulse/internal/cluster"
	"go.uber.org/zap"
)

// Verdict is the health of one workload or of the whole report.
type Verdict string

const (
	VerdictOk     Verdict = "Ok"
	VerdictFailed Verdict = "Failed"
)

// Placeholder identity used when the workload list could not be fetched.
const (
	unknownNamespace = "Unknown"
	fetchErrorName   = "Error fetching deployments"
)

// Item is the per-Deployment entry of a Report. DesiredReplicas is null when
// the API server did not report one; both counts are null on the synthetic
// fetch-error entry.
type Item struct {
	Namespace         string `json:"namespace" yaml:"namespace"`
	Name              string `json:"name" yaml:"name"`
	Status            string `json:"status" yaml:"status"`
	DesiredReplicas   *int32 `json:"desired_replicas" yaml:"desired_replicas"`
	AvailableReplicas *int32 `json:"available_replicas" yaml:"available_replicas"`
}

// Healthy reports whether the item's status is Ok.
func (i Item) Healthy() bool {
	return i.Status == string(VerdictOk)
}

// IsFetchError reports whether i is the placeholder built by FromError.
func (i Item) IsFetchError() bool {
	return i.Namespace == unknownNamespace && i.Name == fetchErrorName &&
		i.DesiredReplicas == nil && i.AvailableReplicas == nil
}

// Report is the aggregate health of every Deployment in the cluster.
type Report struct {
	Status      Verdict `json:"Status" yaml:"status"`
	Deployments []Item  `json:"Deployments" yaml:"deployments"`
}

// Healthy reports whether the overall verdict is Ok.
func (r Report) Healthy() bool {
	return r.Status == VerdictOk
}

// Aggregate builds a Report from a workload list. A workload is Ok only when
// desired and available replicas are exactly equal. An absent available count
// is 0. An absent desired count stays null and never matches, so the
// workload is Failed.
func Aggregate(workloads []cluster.Workload) Report {
	report := Report{
		Status:      VerdictOk,
		Deployments: make([]Item, 0, len(workloads)),
	}

	for _, w := range workloads {
		available := valueOr(w.AvailableReplicas, 0)

		var desired *int32
		if w.DesiredReplicas != nil {
			d := *w.DesiredReplicas
			desired = &d
		}

		verdict := VerdictOk
		if desired == nil || *desired != available {
			verdict = VerdictFailed
			report.Status = VerdictFailed
		}

		report.Deployments = append(report.Deployments, Item{
			Namespace:         w.Namespace,
			Name:              w.Name,
			Status:            string(verdict),
			DesiredReplicas:   desired,
			AvailableReplicas: &available,
		})
	}

	return report
}

// FromError builds the degraded Report returned when the workload list
// cannot be fetched at all.
func FromError(err error) Report {
	return Report{
		Status: VerdictFailed,
		Deployments: []Item{{
			Namespace: unknownNamespace,
			Name:      fetchErrorName,
			Status:    fmt.Sprintf("%s: %v", VerdictFailed, err),
		}},
	}
}

func valueOr(v *int32, def int32) int32 {
	if v == nil {
		return def
	}
	return *v
}

// Aggregator fetches workloads and aggregates them on demand.
type Aggregator struct {
	client cluster.Client
	log    *zap.Logger
}

// NewAggregator creates an Aggregator over client.
func NewAggregator(client cluster.Client, log *zap.Logger) *Aggregator {
	return &Aggregator{client: client, log: log}
}

// Report lists workloads and aggregates them. It never fails: adapter errors
// are folded into a degraded report.
func (a *Aggregator) Report(ctx context.Context) Report {
	workloads, err := a.client.ListWorkloads(ctx)
	if err != nil {
		a.log.Error("failed to fetch deployments", zap.Error(err))
		return FromError(err)
	}

	report := Aggregate(workloads)
	a.log.Debug("fetched deployments",
		zap.Int("count", len(report.Deployments)),
		zap.String("status", string(report.Status)),
	)
	return report
}
