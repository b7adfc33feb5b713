package checkout_test

import (
	"context"
	"sync"

	"github.com/tobaccostore/backend/services/storefront-service/models"
)

// fakeRegions serves a small hierarchy. A province listed in block waits
// for its channel before answering.
type fakeRegions struct {
	mu        sync.Mutex
	cities    map[int64][]models.City
	districts map[int64][]models.District
	quotes    []models.ShippingQuote
	citiesErr error
	costErr   error
	block     map[int64]chan struct{}
	started   chan int64
	calls     int
}

func newFakeRegions() *fakeRegions {
	return &fakeRegions{
		cities: map[int64][]models.City{
			11: {{ID: 444, Name: "Surabaya"}, {ID: 445, Name: "Sidoarjo"}},
			12: {{ID: 23, Name: "Bandung"}},
		},
		districts: map[int64][]models.District{
			444: {{ID: 1391, Name: "Gubeng"}, {ID: 1392, Name: "Tegalsari"}},
			445: {{ID: 1400, Name: "Waru"}},
			23:  {{ID: 300, Name: "Coblong"}},
		},
		quotes: []models.ShippingQuote{
			{Courier: "jne", CourierName: "JNE", Service: "REG", Cost: 20000, ETD: "2-3"},
			{Courier: "jne", CourierName: "JNE", Service: "YES", Cost: 35000, ETD: "1"},
		},
		block:   map[int64]chan struct{}{},
		started: make(chan int64, 4),
	}
}

func (f *fakeRegions) Provinces(ctx context.Context) ([]models.Province, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return []models.Province{{ID: 11, Name: "Jawa Timur"}, {ID: 12, Name: "Jawa Barat"}}, nil
}

func (f *fakeRegions) Cities(ctx context.Context, provinceID int64) ([]models.City, error) {
	f.mu.Lock()
	f.calls++
	wait := f.block[provinceID]
	err := f.citiesErr
	f.mu.Unlock()
	if wait != nil {
		f.started <- provinceID
		<-wait
	}
	if err != nil {
		return nil, err
	}
	return f.cities[provinceID], nil
}

func (f *fakeRegions) Districts(ctx context.Context, cityID int64) ([]models.District, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.districts[cityID], nil
}

func (f *fakeRegions) Cost(ctx context.Context, origin, destination int64, weight int, courier string) ([]models.ShippingQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.costErr != nil {
		return nil, f.costErr
	}
	return f.quotes, nil
}

func (f *fakeRegions) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
