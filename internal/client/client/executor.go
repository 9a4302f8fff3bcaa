package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/vaultblob/internal/client/entity"
	"github.com/dmitrijs2005/vaultblob/internal/common"
)

// AuthHeaderProvider supplies the headers that authenticate the session.
type AuthHeaderProvider interface {
	CreateAuthHeaders() map[string]string
}

// ServiceExecutor calls JSON services on the client's origin.
type ServiceExecutor struct {
	rest *RestClient
	auth AuthHeaderProvider
}

func NewServiceExecutor(rest *RestClient, auth AuthHeaderProvider) *ServiceExecutor {
	return &ServiceExecutor{rest: rest, auth: auth}
}

// Headers returns the auth headers plus the model version of service.
func (e *ServiceExecutor) Headers(service entity.Service) map[string]string {
	headers := map[string]string{}
	for k, v := range e.auth.CreateAuthHeaders() {
		headers[k] = v
	}
	headers[common.ModelVersionHeaderName] = service.RequestModel.Version
	return headers
}

// Post sends request as JSON to service and decodes the reply into
// response, which may be nil.
func (e *ServiceExecutor) Post(ctx context.Context, service entity.Service, request, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", service.Name, err)
	}

	headers := e.Headers(service)
	headers["Content-Type"] = common.MediaTypeJSON

	data, err := e.rest.Request(ctx, service.Path(), http.MethodPost, RequestOptions{
		Headers:      headers,
		Body:         body,
		ResponseType: common.MediaTypeJSON,
	})
	if err != nil {
		return err
	}

	if response == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, response); err != nil {
		return fmt.Errorf("decode %s response: %w", service.Name, err)
	}
	return nil
}
