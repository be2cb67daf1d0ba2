package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	metav1validation "k8s.io/apimachinery/pkg/apis/meta/v1/validation"
	"k8s.io/apimachinery/pkg/util/validation"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

const (
	resultOK     = "OK"
	resultFailed = "Failed"

	policyCreatedMessage = "NetworkPolicy created successfully"
)

// Result is the envelope for write-path and error responses.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreatePolicyRequest is the POST /create-network-policy body.
type CreatePolicyRequest struct {
	PolicyName string            `json:"policy_name"`
	Namespace  string            `json:"namespace"`
	PodLabels  map[string]string `json:"pod_labels"`
}

// RequestError is a client-side problem with the request body.
type RequestError struct {
	Code    int
	Message string
}

func (e *RequestError) Error() string { return e.Message }

func badRequest(format string, args ...any) *RequestError {
	return &RequestError{Code: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	}
}

func version(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Cluster.ServerVersion(r.Context())
		if err != nil {
			d.Logger.Error("failed to get Kubernetes version", zap.Error(err))
			writeResult(w, http.StatusInternalServerError, resultFailed, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func deployments(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Reports.Report(r.Context()))
	}
}

func createNetworkPolicy(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeCreatePolicy(r)
		if err != nil {
			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				reqErr = badRequest("%v", err)
			}
			d.Logger.Warn("rejected network policy request", zap.String("reason", reqErr.Message))
			writeResult(w, reqErr.Code, resultFailed, reqErr.Message)
			return
		}

		if d.Limiter != nil {
			if res := d.Limiter.CheckAndIncrement(req.Namespace); !res.Allowed {
				d.Logger.Warn("network policy request rate limited",
					zap.String("namespace", req.Namespace),
					zap.String("reason", res.DenialReason),
				)
				writeResult(w, http.StatusTooManyRequests, resultFailed, res.DenialReason)
				return
			}
		}

		if err := d.Policies.Create(r.Context(), req.PolicyName, req.Namespace, req.PodLabels); err != nil {
			writeResult(w, http.StatusInternalServerError, resultFailed, err.Error())
			return
		}
		writeResult(w, http.StatusOK, resultOK, policyCreatedMessage)
	}
}

// decodeCreatePolicy strictly decodes and validates the request body.
func decodeCreatePolicy(r *http.Request) (CreatePolicyRequest, error) {
	var req CreatePolicyRequest
	if r.Body == nil || r.ContentLength == 0 {
		return req, badRequest("request body is required")
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if tooLarge := asTooLarge(err); tooLarge != nil {
			return req, tooLarge
		}
		return req, badRequest("request body must contain a single JSON object")
	}

	if errs := validateCreatePolicy(req); len(errs) > 0 {
		return req, badRequest("%s", errs.ToAggregate().Error())
	}
	return req, nil
}

func decodeError(err error) error {
	if tooLarge := asTooLarge(err); tooLarge != nil {
		return tooLarge
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		return badRequest("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return badRequest("field %q must be %s", typeErr.Field, typeErr.Type)
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return badRequest("request body is incomplete")
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return badRequest("%s", strings.TrimPrefix(err.Error(), "json: "))
	default:
		return badRequest("invalid request body: %v", err)
	}
}

func asTooLarge(err error) *RequestError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return &RequestError{
			Code:    http.StatusRequestEntityTooLarge,
			Message: fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit),
		}
	}
	return nil
}

func validateCreatePolicy(req CreatePolicyRequest) field.ErrorList {
	var errs field.ErrorList

	nameField := field.NewPath("policy_name")
	if req.PolicyName == "" {
		errs = append(errs, field.Required(nameField, "policy name is required"))
	} else {
		for _, msg := range validation.IsDNS1123Subdomain(req.PolicyName) {
			errs = append(errs, field.Invalid(nameField, req.PolicyName, msg))
		}
	}

	nsField := field.NewPath("namespace")
	if req.Namespace == "" {
		errs = append(errs, field.Required(nsField, "namespace is required"))
	} else {
		for _, msg := range validation.IsDNS1123Label(req.Namespace) {
			errs = append(errs, field.Invalid(nsField, req.Namespace, msg))
		}
	}

	errs = append(errs, metav1validation.ValidateLabels(req.PodLabels, field.NewPath("pod_labels"))...)
	return errs
}

func writeResult(w http.ResponseWriter, code int, status, message string) {
	writeJSON(w, code, Result{Status: status, Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
