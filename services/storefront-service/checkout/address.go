package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tobaccostore/backend/services/storefront-service/models"
	"github.com/tobaccostore/backend/services/storefront-service/providers"
)

var (
	// ErrStaleSelection is returned for a fetch whose selection changed
	// while it was in flight. Its result was discarded.
	ErrStaleSelection = errors.New("selection changed while loading")
	ErrUnknownRegion  = errors.New("region is not part of the selected parent")
	ErrIncomplete     = errors.New("province, city and district are required")
	ErrNoService      = errors.New("shipping service not selected")
)

// FetchError is a failed region or quote lookup. The affected level stays
// empty and the lookup can be retried.
type FetchError struct {
	Level string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.Level, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Retryable() bool { return true }

type level int

const (
	levelCities level = iota
	levelDistricts
	levelQuotes
	levelCount
)

// Address is a complete destination.
type Address struct {
	Province models.Province
	City     models.City
	District models.District
}

// String formats the address for the order's shipping destination.
func (a Address) String() string {
	parts := make([]string, 0, 3)
	for _, name := range []string{a.District.Name, a.City.Name, a.Province.Name} {
		if name != "" {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

// AddressSession walks the province, city, district hierarchy and the
// courier quotes for one buyer. Every selection clears what depends on it.
// A lookup is applied only if the selection it was started for is still
// current.
type AddressSession struct {
	regions providers.RateProvider

	mu        sync.Mutex
	gens      [levelCount]uint64
	provinces []models.Province
	province  *models.Province
	cities    []models.City
	city      *models.City
	districts []models.District
	district  *models.District
	courier   string
	quotes    []models.ShippingQuote
	service   *models.ShippingQuote
}

func NewAddressSession(regions providers.RateProvider) *AddressSession {
	return &AddressSession{regions: regions}
}

// bump invalidates in-flight lookups at and below from. Callers hold mu.
func (s *AddressSession) bump(from level) {
	for l := from; l < levelCount; l++ {
		s.gens[l]++
	}
}

// Provinces loads the top level.
func (s *AddressSession) Provinces(ctx context.Context) ([]models.Province, error) {
	provinces, err := s.regions.Provinces(ctx)
	if err != nil {
		return nil, &FetchError{Level: "provinces", Err: err}
	}
	s.mu.Lock()
	s.provinces = provinces
	s.mu.Unlock()
	return provinces, nil
}

// SelectProvince sets the province, clears city, district and quotes, and
// loads the province's cities. When provinces were loaded, id must be one
// of them.
func (s *AddressSession) SelectProvince(ctx context.Context, id int64) ([]models.City, error) {
	s.mu.Lock()
	p := models.Province{ID: id}
	if s.provinces != nil {
		found := false
		for _, known := range s.provinces {
			if known.ID == id {
				p, found = known, true
			}
		}
		if !found {
			s.mu.Unlock()
			return nil, ErrUnknownRegion
		}
	}
	s.province = &p
	s.cities, s.city = nil, nil
	s.districts, s.district = nil, nil
	s.quotes, s.service = nil, nil
	s.bump(levelCities)
	gen := s.gens[levelCities]
	s.mu.Unlock()

	cities, err := s.regions.Cities(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[levelCities] != gen {
		return nil, ErrStaleSelection
	}
	if err != nil {
		return nil, &FetchError{Level: "cities", Err: err}
	}
	s.cities = cities
	return cities, nil
}

// SelectCity sets a city of the loaded list, clears district and quotes,
// and loads the city's districts.
func (s *AddressSession) SelectCity(ctx context.Context, id int64) ([]models.District, error) {
	s.mu.Lock()
	var found *models.City
	for i := range s.cities {
		if s.cities[i].ID == id {
			c := s.cities[i]
			found = &c
		}
	}
	if found == nil {
		s.mu.Unlock()
		return nil, ErrUnknownRegion
	}
	s.city = found
	s.districts, s.district = nil, nil
	s.quotes, s.service = nil, nil
	s.bump(levelDistricts)
	gen := s.gens[levelDistricts]
	s.mu.Unlock()

	districts, err := s.regions.Districts(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[levelDistricts] != gen {
		return nil, ErrStaleSelection
	}
	if err != nil {
		return nil, &FetchError{Level: "districts", Err: err}
	}
	s.districts = districts
	return districts, nil
}

// SelectDistrict sets a district of the loaded list and clears the quotes.
func (s *AddressSession) SelectDistrict(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.districts {
		if s.districts[i].ID == id {
			d := s.districts[i]
			s.district = &d
			s.quotes, s.service = nil, nil
			s.bump(levelQuotes)
			return nil
		}
	}
	return ErrUnknownRegion
}

// SelectCourier sets the courier code list and clears the quotes.
func (s *AddressSession) SelectCourier(courier string) error {
	courier = strings.ToLower(strings.TrimSpace(courier))
	if !models.ValidCourier(courier) {
		return fmt.Errorf("invalid courier %q", courier)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courier = courier
	s.quotes, s.service = nil, nil
	s.bump(levelQuotes)
	return nil
}

// Quotes loads the courier quotes from origin to the selected district. An
// empty list is a valid answer.
func (s *AddressSession) Quotes(ctx context.Context, origin int64, weight int) ([]models.ShippingQuote, error) {
	s.mu.Lock()
	if s.district == nil {
		s.mu.Unlock()
		return nil, ErrIncomplete
	}
	if s.courier == "" {
		s.mu.Unlock()
		return nil, ErrNoService
	}
	destination, courier := s.district.ID, s.courier
	gen := s.gens[levelQuotes]
	s.mu.Unlock()

	quotes, err := s.regions.Cost(ctx, origin, destination, weight, courier)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[levelQuotes] != gen {
		return nil, ErrStaleSelection
	}
	if err != nil {
		return nil, &FetchError{Level: "quotes", Err: err}
	}
	if quotes == nil {
		quotes = []models.ShippingQuote{}
	}
	s.quotes = quotes
	return quotes, nil
}

// SelectService picks one of the loaded quotes by service name.
func (s *AddressSession) SelectService(service string) (*models.ShippingQuote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.quotes {
		if strings.EqualFold(s.quotes[i].Service, service) {
			q := s.quotes[i]
			s.service = &q
			return &q, nil
		}
	}
	return nil, ErrNoService
}

// Address returns the selected destination once every level is set.
func (s *AddressSession) Address() (Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.province == nil || s.city == nil || s.district == nil {
		return Address{}, ErrIncomplete
	}
	return Address{Province: *s.province, City: *s.city, District: *s.district}, nil
}

// Selection is a snapshot of the session state.
type Selection struct {
	Province *models.Province
	City     *models.City
	District *models.District
	Courier  string
	Quotes   []models.ShippingQuote
	Service  *models.ShippingQuote
}

func (s *AddressSession) Snapshot() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{
		Province: s.province,
		City:     s.city,
		District: s.district,
		Courier:  s.courier,
		Quotes:   append([]models.ShippingQuote(nil), s.quotes...),
		Service:  s.service,
	}
}
