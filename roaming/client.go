package roaming

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"wwcp/internal/config"
	"wwcp/models"
	"wwcp/status"
)

const (
	endpointStatus       = "/status"
	endpointAdminStatus  = "/adminStatus"
	endpointEnergyStatus = "/energyStatus"
	endpointEvses        = "/evses"
	endpointStations     = "/stations"
)

const clientAttempts = 3

// Client pushes update batches to one partner endpoint over HTTP. Transport
// errors are retried a bounded number of times; a partner rejection is
// final and mapped to a fault kind.
type Client struct {
	name       string
	url        string
	token      string
	timeout    time.Duration
	retryDelay time.Duration
	client     *http.Client
}

func NewClient(partner config.Partner) *Client {
	timeout := time.Duration(partner.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		name:       partner.Name,
		url:        partner.Url,
		token:      partner.Token,
		timeout:    timeout,
		retryDelay: time.Second,
		client:     &http.Client{},
	}
}

func (c *Client) Name() string {
	return c.name
}

// pushEnvelope is the wire form of one batch.
type pushEnvelope struct {
	Timestamp  time.Time   `json:"timestamp"`
	TrackingId string      `json:"trackingId"`
	Dimension  string      `json:"dimension,omitempty"`
	Items      interface{} `json:"items"`
}

// pushResponse carries per-item outcomes parallel to the request items. A
// partner that applies everything may answer with an empty items list.
type pushResponse struct {
	Items []pushItemOutcome `json:"items"`
}

type pushItemOutcome struct {
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

func (c *Client) ReceiveEvseStatus(ctx context.Context, updates []EvseStatusUpdate, params Params) (status.Result[EvseStatusUpdate], error) {
	return push(ctx, c, endpointStatus, "operational", updates, params)
}

func (c *Client) ReceiveStationStatus(ctx context.Context, updates []StationStatusUpdate, params Params) (status.Result[StationStatusUpdate], error) {
	return push(ctx, c, endpointStatus, "station", updates, params)
}

func (c *Client) ReceiveEvseAdminStatus(ctx context.Context, updates []EvseAdminStatusUpdate, params Params) (status.Result[EvseAdminStatusUpdate], error) {
	return push(ctx, c, endpointAdminStatus, "admin", updates, params)
}

func (c *Client) ReceiveEvseEnergyStatus(ctx context.Context, updates []EvseEnergyStatusUpdate, params Params) (status.Result[EvseEnergyStatusUpdate], error) {
	return push(ctx, c, endpointEnergyStatus, "energy", updates, params)
}

func (c *Client) AddEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error) {
	return push(ctx, c, endpointEvses, "add", evses, params)
}

func (c *Client) UpdateEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error) {
	return push(ctx, c, endpointEvses, "update", evses, params)
}

func (c *Client) DeleteEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error) {
	return push(ctx, c, endpointEvses, "delete", evses, params)
}

func (c *Client) AddOrUpdateEvses(ctx context.Context, evses []models.Evse, params Params) (status.Result[models.Evse], error) {
	return push(ctx, c, endpointEvses, "addOrUpdate", evses, params)
}

func (c *Client) AddStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error) {
	return push(ctx, c, endpointStations, "add", stations, params)
}

func (c *Client) UpdateStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error) {
	return push(ctx, c, endpointStations, "update", stations, params)
}

func (c *Client) DeleteStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error) {
	return push(ctx, c, endpointStations, "delete", stations, params)
}

func (c *Client) AddOrUpdateStations(ctx context.Context, stations []models.ChargingStation, params Params) (status.Result[models.ChargingStation], error) {
	return push(ctx, c, endpointStations, "addOrUpdate", stations, params)
}

// push sends one batch and folds the partner's answer into a result. On a
// transport or protocol fault every item is marked with the same outcome.
func push[Item any](ctx context.Context, c *Client, endpoint, dimension string, items []Item, params Params) (status.Result[Item], error) {
	if len(items) == 0 {
		return status.Result[Item]{}, nil
	}
	envelope := pushEnvelope{
		Timestamp:  params.Timestamp,
		TrackingId: params.EventTrackingId,
		Dimension:  dimension,
		Items:      items,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return failAll(items, status.Validationf("marshalling batch: %v", err)), err
	}

	timeout := c.timeout
	if params.RequestTimeout > 0 {
		timeout = params.RequestTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var resp []byte
	for attempt := 0; attempt < clientAttempts; attempt++ {
		resp, err = c.doRequest(ctx, endpoint, body)
		if err == nil {
			break
		}
		if _, final := err.(*status.Fault); final {
			break
		}
		select {
		case <-ctx.Done():
			err = status.Timeoutf("%s%s: %v", c.url, endpoint, ctx.Err())
			attempt = clientAttempts
		case <-time.After(c.retryDelay):
		}
	}
	if err != nil {
		return failAll(items, err), err
	}

	var answer pushResponse
	if len(resp) > 0 {
		if jsonErr := json.Unmarshal(resp, &answer); jsonErr != nil {
			answer.Items = nil
		}
	}
	return zipOutcomes(items, answer), nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%v%v", c.url, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, status.Timeoutf("%s: %v", url, ctx.Err())
		}
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, faultForCode(resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// faultForCode maps a partner rejection to the fault taxonomy. Rejections
// are final; only transport errors are retried.
func faultForCode(code int, url string) error {
	switch code {
	case http.StatusBadRequest:
		return status.Validationf("%s: rejected with code %d", url, code)
	case http.StatusNotFound:
		return status.NotFoundf("%s: rejected with code %d", url, code)
	case http.StatusConflict:
		return status.Conflictf("%s: rejected with code %d", url, code)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return status.Timeoutf("%s: rejected with code %d", url, code)
	case http.StatusNotImplemented:
		return status.NotSupportedf("%s: rejected with code %d", url, code)
	default:
		return fmt.Errorf("%s: received non-200 status code: %d", url, code)
	}
}

func failAll[Item any](items []Item, err error) status.Result[Item] {
	outcome := status.Classify(err)
	result := status.Result[Item]{Items: make([]status.ItemResult[Item], 0, len(items))}
	for _, item := range items {
		result.Items = append(result.Items, status.ItemResult[Item]{
			Item:    item,
			Outcome: outcome,
			Err:     err,
		})
	}
	return result
}

// zipOutcomes pairs request items with the partner's per-item answers.
// Missing answers count as Success: an empty answer list means the partner
// applied the whole batch.
func zipOutcomes[Item any](items []Item, answer pushResponse) status.Result[Item] {
	result := status.Result[Item]{Items: make([]status.ItemResult[Item], 0, len(items))}
	for i, item := range items {
		itemResult := status.ItemResult[Item]{Item: item, Outcome: status.OutcomeSuccess}
		if i < len(answer.Items) {
			switch status.Outcome(answer.Items[i].Outcome) {
			case status.OutcomeNoOperation:
				itemResult.Outcome = status.OutcomeNoOperation
			case status.OutcomeTimeout:
				itemResult.Outcome = status.OutcomeTimeout
				itemResult.Err = status.Timeoutf("%s", answer.Items[i].Error)
			case status.OutcomeError:
				itemResult.Outcome = status.OutcomeError
				itemResult.Err = fmt.Errorf("%s", answer.Items[i].Error)
			}
		}
		result.Items = append(result.Items, itemResult)
	}
	return result
}
