package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Provider fetches raw records for a date range. Implementations must return
// an empty slice (not an error) when the range simply contains no records.
type Provider interface {
	Fetch(ctx context.Context, dataType DataType, start, end time.Time) ([]Record, error)
}

// RESTProvider talks to the commerce platform's export API over HTTP.
type RESTProvider struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewRESTProvider builds a provider against baseURL. The timeout bounds every
// fetch, connect included.
func NewRESTProvider(baseURL, token string, timeout time.Duration) *RESTProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTProvider{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves all records of the given type created within [start, end).
func (p *RESTProvider) Fetch(ctx context.Context, dataType DataType, start, end time.Time) ([]Record, error) {
	body, err := p.get(ctx, string(dataType), start, end)
	if err != nil {
		return nil, err
	}
	switch dataType {
	case DataOrders:
		return decodeRecords[Order](body)
	case DataCustomers:
		return decodeRecords[Customer](body)
	case DataRefunds:
		return decodeRecords[Refund](body)
	case DataTaxes:
		return decodeRecords[TaxLine](body)
	default:
		return nil, fmt.Errorf("unknown data type %q", dataType)
	}
}

func (p *RESTProvider) get(ctx context.Context, resource string, start, end time.Time) ([]byte, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse commerce base url: %w", err)
	}
	u = u.JoinPath("export", resource)
	q := u.Query()
	q.Set("created_at_min", start.UTC().Format(time.RFC3339))
	q.Set("created_at_max", end.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create commerce request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: commerce api returned status %d", resource, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", resource, err)
	}
	return body, nil
}

func decodeRecords[T Record](body []byte) ([]Record, error) {
	var items []T
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, item)
	}
	return records, nil
}
