package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

const RajaOngkirBaseURL = "https://rajaongkir.komerce.id/api/v1"

// RajaOngkirProvider implements RateProvider against the RajaOngkir Komerce v1 API.
type RajaOngkirProvider struct {
	http httpClient
}

// NewRajaOngkirProvider creates a provider. An empty baseURL selects the
// public endpoint.
func NewRajaOngkirProvider(apiKey, baseURL string) *RajaOngkirProvider {
	if baseURL == "" {
		baseURL = RajaOngkirBaseURL
	}
	return &RajaOngkirProvider{
		http: newHTTPClient("rajaongkir", baseURL, func(r *http.Request) {
			r.Header.Set("key", apiKey)
		}),
	}
}

// ---- RajaOngkir API structs ----

type rajaOngkirMeta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type rajaOngkirEnvelope struct {
	Meta rajaOngkirMeta  `json:"meta"`
	Data json.RawMessage `json:"data"`
}

type rajaOngkirRegion struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	ZipCode string `json:"zip_code"`
}

type rajaOngkirCostRequest struct {
	Origin      int64  `json:"origin"`
	Destination int64  `json:"destination"`
	Weight      int    `json:"weight"`
	Courier     string `json:"courier"`
}

type rajaOngkirCost struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Service     string `json:"service"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	ETD         string `json:"etd"`
}

// ---- RateProvider implementation ----

func (p *RajaOngkirProvider) Provinces(ctx context.Context) ([]models.Province, error) {
	var regions []rajaOngkirRegion
	if err := p.call(ctx, http.MethodGet, "/destination/province", nil, &regions); err != nil {
		return nil, err
	}
	out := make([]models.Province, 0, len(regions))
	for _, r := range regions {
		out = append(out, models.Province{ID: r.ID, Name: r.Name})
	}
	return out, nil
}

func (p *RajaOngkirProvider) Cities(ctx context.Context, provinceID int64) ([]models.City, error) {
	var regions []rajaOngkirRegion
	path := fmt.Sprintf("/destination/city/%d", provinceID)
	if err := p.call(ctx, http.MethodGet, path, nil, &regions); err != nil {
		return nil, err
	}
	out := make([]models.City, 0, len(regions))
	for _, r := range regions {
		out = append(out, models.City{ID: r.ID, Name: r.Name, ZipCode: r.ZipCode})
	}
	return out, nil
}

func (p *RajaOngkirProvider) Districts(ctx context.Context, cityID int64) ([]models.District, error) {
	var regions []rajaOngkirRegion
	path := fmt.Sprintf("/destination/district/%d", cityID)
	if err := p.call(ctx, http.MethodGet, path, nil, &regions); err != nil {
		return nil, err
	}
	out := make([]models.District, 0, len(regions))
	for _, r := range regions {
		out = append(out, models.District{ID: r.ID, Name: r.Name, ZipCode: r.ZipCode})
	}
	return out, nil
}

// Cost returns every service the courier offers for the route. An empty
// slice is a valid answer.
func (p *RajaOngkirProvider) Cost(ctx context.Context, origin, destination int64, weight int, courier string) ([]models.ShippingQuote, error) {
	reqBody := rajaOngkirCostRequest{
		Origin:      origin,
		Destination: destination,
		Weight:      weight,
		Courier:     courier,
	}
	var costs []rajaOngkirCost
	if err := p.call(ctx, http.MethodPost, "/calculate/district/domestic-cost", reqBody, &costs); err != nil {
		return nil, err
	}
	quotes := make([]models.ShippingQuote, 0, len(costs))
	for _, c := range costs {
		quotes = append(quotes, models.ShippingQuote{
			Courier:     c.Code,
			CourierName: c.Name,
			Service:     c.Service,
			Description: c.Description,
			Cost:        c.Cost,
			ETD:         c.ETD,
		})
	}
	return quotes, nil
}

// call unwraps the {meta, data} envelope into out.
func (p *RajaOngkirProvider) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var env rajaOngkirEnvelope
	if err := p.http.doRequest(ctx, method, path, body, &env); err != nil {
		return err
	}
	if env.Meta.Code != http.StatusOK {
		msg := env.Meta.Message
		if msg == "" {
			msg = "API Error"
		}
		return &BusinessError{Provider: "rajaongkir", Code: env.Meta.Code, Message: msg}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Provider: "rajaongkir", Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
