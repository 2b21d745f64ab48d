package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stagedoor/pkg/model"
)

type EventClient struct {
	httpClient *HttpClient
}

func NewEventClient(baseUrl string) *EventClient {
	return &EventClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *EventClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/events", body)
}

func (c *EventClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/events/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *EventClient) Update(id string, body any) (*Response, error) {
	path := "/api/v1/events/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(path, body)
}

func (c *EventClient) Transition(id string, body any) (*Response, error) {
	path := "/api/v1/events/id/" + url.PathEscape(id) + "/transition"
	return c.httpClient.PATCH(path, body)
}

func (c *EventClient) Search(hostID string, venueID string, lifecycle string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if hostID != "" {
		q.Set("host_id", hostID)
	}
	if venueID != "" {
		q.Set("venue_id", venueID)
	}
	if lifecycle != "" {
		q.Set("lifecycle", lifecycle)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/events/search?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *EventClient) DecodeEvent(resp *Response) (*model.Event, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode event wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var event model.Event
	if err := json.Unmarshal(wrapper.Data, &event); err != nil {
		return nil, fmt.Errorf("could not decode event json:\n%+v\n%s", resp.ToString(), err)
	}

	return &event, nil
}

func (c *EventClient) DecodeEvents(resp *Response) ([]*model.Event, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var events []*model.Event
	if err := json.Unmarshal(wrapper.Data, &events); err != nil {
		return nil, nil, fmt.Errorf("could not decode event list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return events, metadata, nil
}
