package client

// Client bundles the process-wide connections a service hands to its
// repositories and, for the orchestrator, the HTTP clients of its peers.
type Client struct {
	Mongo *MongoClient

	VenueClient *VenueClient
	SlotClient  *SlotClient
	EventClient *EventClient
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetServiceClients(venuesBaseURL, slotsBaseURL, eventsBaseURL string) {
	c.VenueClient = NewVenueClient(venuesBaseURL)
	c.SlotClient = NewSlotClient(slotsBaseURL)
	c.EventClient = NewEventClient(eventsBaseURL)
}

func (c *Client) GracefulShutdown() {
	if c.Mongo != nil {
		c.Mongo.Disconnect()
	}
}
