package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
	errs "github.com/yijiasang/glamap/errors"
)

// StorageService talks to the external object storage collaborator that
// signs upload URLs and serves the files. The call goes through a circuit
// breaker so a dead storage service fails fast instead of piling up
// handlers.
type StorageService struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker
	tracer   trace.Tracer
	logger   *logrus.Logger
}

func NewStorageService(host, port string, tracer trace.Tracer, logger *logrus.Logger) *StorageService {
	return &StorageService{
		endpoint: fmt.Sprintf("http://%s:%s/sign", host, port),
		client:   &http.Client{Timeout: 10 * time.Second},
		cb:       CircuitBreaker("storageService", logger),
		tracer:   tracer,
		logger:   logger,
	}
}

type signRequest struct {
	ProfileID   string `json:"profileId"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
}

// SignUpload obtains a one-time upload URL for the caller's file.
func (service *StorageService) SignUpload(ctx context.Context, profileID, filename, contentType string) (*domain.UploadTicket, error) {
	ctx, span := service.tracer.Start(ctx, "StorageService.SignUpload")
	defer span.End()

	payload, err := json.Marshal(signRequest{
		ProfileID:   profileID,
		Filename:    filename,
		ContentType: contentType,
	})
	if err != nil {
		return nil, err
	}

	result, breakerErr := service.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, service.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := service.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("storage service returned %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}

		var ticket domain.UploadTicket
		if err := json.Unmarshal(body, &ticket); err != nil {
			return nil, err
		}
		return &ticket, nil
	})
	if breakerErr != nil {
		service.logger.Warnf("sign upload: %s", breakerErr)
		return nil, fmt.Errorf("%w: object storage unreachable", errs.ErrUnavailable)
	}

	ticket, ok := result.(*domain.UploadTicket)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from storage call")
	}
	return ticket, nil
}

func CircuitBreaker(name string, logger *logrus.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.Infof("Circuit Breaker '%s' changed from '%s' to '%s'", name, from, to)
			},
		},
	)
}
