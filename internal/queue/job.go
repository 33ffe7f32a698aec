package queue

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/polkiloo/coursemart/internal/domain/model"
)

// ErrMalformedJob marks a message body that can never be processed.
var ErrMalformedJob = errors.New("malformed job")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth redelivering; the job is acknowledged and dropped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// EncodeJob serialises a job into a message body.
func EncodeJob(job model.Job) (string, error) {
	body, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	return string(body), nil
}

// DecodeJob parses a message body and validates the variant payload.
func DecodeJob(body []byte) (model.Job, error) {
	var job model.Job
	if err := json.Unmarshal(body, &job); err != nil {
		return job, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	switch job.Kind {
	case model.JobPaymentApproved, model.JobPaymentRejected:
		if job.OrderID == "" {
			return job, fmt.Errorf("%w: %s without order id", ErrMalformedJob, job.Kind)
		}
	case model.JobGenerateInvoicePDF:
		if job.InvoiceID == "" {
			return job, fmt.Errorf("%w: %s without invoice id", ErrMalformedJob, job.Kind)
		}
	default:
		return job, fmt.Errorf("%w: unknown kind %q", ErrMalformedJob, job.Kind)
	}
	return job, nil
}
