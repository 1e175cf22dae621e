package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/timeline"
	"github.com/itinerary-planner/backend/internal/validator"
)

// ErrRequestFailed is returned when the optimizer cannot be reached, answers
// with a non-2xx status, or reports success=false.
var ErrRequestFailed = errors.New("optimizer request failed")

// Request is the planning input sent to the optimizer.
type Request struct {
	Places        []itinerary.Place       `json:"places"`
	StartDate     string                  `json:"startDate"`
	EndDate       string                  `json:"endDate"`
	TransportMode itinerary.TransportMode `json:"transportMode"`
}

// NewRequest builds a planning request from a trip.
func NewRequest(trip itinerary.Trip) Request {
	places := trip.Places
	if places == nil {
		places = []itinerary.Place{}
	}
	return Request{
		Places:        places,
		StartDate:     trip.StartDateString(),
		EndDate:       trip.EndDateString(),
		TransportMode: trip.TransportMode,
	}
}

// Response is a decoded optimizer answer.
type Response struct {
	Success bool
	Events  []itinerary.Event
	Status  validator.Status
	Error   string
	// Skipped counts untimed events (hotel anchors) dropped while decoding.
	Skipped int
}

type wireResponse struct {
	Success        bool              `json:"success"`
	Events         []wireEvent       `json:"events"`
	Error          string            `json:"error"`
	ScheduleStatus *validator.Status `json:"schedule_status"`
}

type wireEvent struct {
	ID        string                  `json:"id"`
	Type      itinerary.Kind          `json:"type"`
	Title     string                  `json:"title"`
	Day       int                     `json:"day"`
	StartTime string                  `json:"startTime"`
	EndTime   string                  `json:"endTime"`
	Place     *itinerary.Place        `json:"place"`
	Mode      itinerary.TransportMode `json:"mode"`
	Duration  float64                 `json:"duration"`
}

// Client is a client for the optimizer API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new optimizer client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Optimize requests a full schedule for the given trip parameters.
func (c *Client) Optimize(ctx context.Context, request Request) (*Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: API error (status %d): %s", ErrRequestFailed, resp.StatusCode,
			strings.TrimSpace(string(body)))
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrRequestFailed, err)
	}

	if !wire.Success {
		msg := wire.Error
		if msg == "" {
			msg = "optimizer reported failure"
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, msg)
	}

	out := &Response{Success: true, Error: wire.Error}
	if wire.ScheduleStatus != nil {
		out.Status = wire.ScheduleStatus.Normalize()
	} else {
		out.Status = validator.Status{IsReasonable: true}.Normalize()
	}

	for i, we := range wire.Events {
		event, ok, err := we.decode()
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %w", ErrRequestFailed, i, err)
		}
		if !ok {
			out.Skipped++
			continue
		}
		out.Events = append(out.Events, event)
	}

	if out.Skipped > 0 {
		log.Printf("Optimizer returned %d untimed events, skipped", out.Skipped)
	}

	return out, nil
}

// decode converts a wire event. Events without times are anchors that do
// not occupy the timeline and are reported as not ok.
func (we wireEvent) decode() (itinerary.Event, bool, error) {
	if strings.TrimSpace(we.StartTime) == "" || strings.TrimSpace(we.EndTime) == "" {
		return itinerary.Event{}, false, nil
	}

	start, err := timeline.ParseTime(we.StartTime)
	if err != nil {
		return itinerary.Event{}, false, err
	}
	end, err := timeline.ParseTime(we.EndTime)
	if err != nil {
		return itinerary.Event{}, false, err
	}

	kind := we.Type
	if kind == "" {
		kind = itinerary.KindVisit
	}
	id := we.ID
	if id == "" {
		id = uuid.NewString()
	}

	event := itinerary.Event{
		ID:    id,
		Kind:  kind,
		Title: we.Title,
		Day:   we.Day,
		Start: start,
		End:   end,
	}
	if kind == itinerary.KindTransit {
		event.Mode = we.Mode
		event.Duration = we.Duration
		if event.Duration == 0 {
			event.Duration = float64(end - start)
		}
	} else {
		event.Place = we.Place
		if event.Title == "" && we.Place != nil {
			event.Title = we.Place.Name
		}
	}
	return event, true, nil
}

// newRequest creates a new JSON HTTP request against the planning endpoint.
func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.endpoint(), body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return req, nil
}
