package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stagedoor/pkg/model"
)

type SlotClient struct {
	httpClient *HttpClient
}

func NewSlotClient(baseUrl string) *SlotClient {
	return &SlotClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *SlotClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/slots", body)
}

func (c *SlotClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/slots/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *SlotClient) Transition(id string, body any) (*Response, error) {
	path := "/api/v1/slots/id/" + url.PathEscape(id) + "/transition"
	return c.httpClient.PATCH(path, body)
}

func (c *SlotClient) GetPending(venueID string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	q.Set("venue_id", venueID)
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/slots/pending?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SlotClient) Search(venueID string, eventID string, status string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if venueID != "" {
		q.Set("venue_id", venueID)
	}
	if eventID != "" {
		q.Set("event_id", eventID)
	}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/slots/search?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SlotClient) GetCalendar(venueID string, fromDate string, toDate string, hostID string) (*Response, error) {
	q := url.Values{}
	q.Set("venue_id", venueID)
	q.Set("from", fromDate)
	q.Set("to", toDate)
	if hostID != "" {
		q.Set("host_id", hostID)
	}

	path := "/api/v1/calendar?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SlotClient) GetAvailability(venueID string, date string) (*Response, error) {
	q := url.Values{}
	q.Set("venue_id", venueID)
	q.Set("date", date)

	path := "/api/v1/calendar/availability?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *SlotClient) DecodeSlotRequest(resp *Response) (*model.SlotRequest, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode slot request wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var req model.SlotRequest
	if err := json.Unmarshal(wrapper.Data, &req); err != nil {
		return nil, fmt.Errorf("could not decode slot request json:\n%+v\n%s", resp.ToString(), err)
	}

	return &req, nil
}

func (c *SlotClient) DecodeSlotRequests(resp *Response) ([]*model.SlotRequest, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var reqs []*model.SlotRequest
	if err := json.Unmarshal(wrapper.Data, &reqs); err != nil {
		return nil, nil, fmt.Errorf("could not decode slot request list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return reqs, metadata, nil
}

func (c *SlotClient) DecodeCalendar(resp *Response) ([]*model.CalendarDay, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode calendar wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var days []*model.CalendarDay
	if err := json.Unmarshal(wrapper.Data, &days); err != nil {
		return nil, fmt.Errorf("could not decode calendar days:\n%+v\n%s", resp.ToString(), err)
	}

	return days, nil
}

func (c *SlotClient) DecodeAvailability(resp *Response) ([]*model.AvailabilitySegment, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var segments []*model.AvailabilitySegment
	if err := json.Unmarshal(wrapper.Data, &segments); err != nil {
		return nil, fmt.Errorf("could not decode availability segments:\n%+v\n%s", resp.ToString(), err)
	}

	return segments, nil
}
