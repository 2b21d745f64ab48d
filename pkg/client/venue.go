package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"stagedoor/pkg/model"
)

type VenueClient struct {
	httpClient *HttpClient
}

func NewVenueClient(baseUrl string) *VenueClient {
	return &VenueClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *VenueClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/venues", body)
}

func (c *VenueClient) GetAll(limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/venues?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(path)
}

func (c *VenueClient) Search(name string, city string, limit int, offset int64) (*Response, error) {
	q := url.Values{}
	if name != "" {
		q.Set("name", name)
	}
	if city != "" {
		q.Set("city", city)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	path := "/api/v1/venues/search?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *VenueClient) GetByID(id string) (*Response, error) {
	path := "/api/v1/venues/id/" + url.PathEscape(id)
	return c.httpClient.GET(path)
}

func (c *VenueClient) Update(id string, body any) (*Response, error) {
	path := "/api/v1/venues/id/" + url.PathEscape(id)
	return c.httpClient.PATCH(path, body)
}

func (c *VenueClient) Delete(id string) (*Response, error) {
	path := "/api/v1/venues/id/" + url.PathEscape(id)
	return c.httpClient.DELETE(path)
}

func (c *VenueClient) CreateBlock(venueID string, body any) (*Response, error) {
	path := "/api/v1/venues/id/" + url.PathEscape(venueID) + "/blocks"
	return c.httpClient.POST(path, body)
}

func (c *VenueClient) GetBlocks(venueID string, fromDate string, toDate string) (*Response, error) {
	q := url.Values{}
	if fromDate != "" {
		q.Set("from", fromDate)
	}
	if toDate != "" {
		q.Set("to", toDate)
	}
	path := "/api/v1/venues/id/" + url.PathEscape(venueID) + "/blocks?" + q.Encode()
	return c.httpClient.GET(path)
}

func (c *VenueClient) DeleteBlock(venueID string, blockID string) (*Response, error) {
	path := "/api/v1/venues/id/" + url.PathEscape(venueID) + "/blocks/" + url.PathEscape(blockID)
	return c.httpClient.DELETE(path)
}

func (c *VenueClient) DecodeVenue(resp *Response) (*model.Venue, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode venue wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var venue model.Venue
	if err := json.Unmarshal(wrapper.Data, &venue); err != nil {
		return nil, fmt.Errorf("could not decode venue json:\n%+v\n%s", resp.ToString(), err)
	}

	return &venue, nil
}

func (c *VenueClient) DecodeVenues(resp *Response) ([]*model.Venue, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Limit      int             `json:"limit"`
		Offset     int64           `json:"offset"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var venues []*model.Venue
	if err := json.Unmarshal(wrapper.Data, &venues); err != nil {
		return nil, nil, fmt.Errorf("could not decode venue list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Limit:      wrapper.Limit,
		Offset:     wrapper.Offset,
	}

	return venues, metadata, nil
}

func (c *VenueClient) DecodeBlocks(resp *Response) ([]*model.VenueBlock, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode block wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var blocks []*model.VenueBlock
	if err := json.Unmarshal(wrapper.Data, &blocks); err != nil {
		return nil, fmt.Errorf("could not decode block list:\n%+v\n%s", resp.ToString(), err)
	}

	return blocks, nil
}
