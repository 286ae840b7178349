// Package geocode resolves coordinates to place names offline.
//
// Index loads a GeoNames cities dump (cities1000.txt or similar) and the
// admin1CodesASCII.txt region names into a quadtree and answers each lookup
// with the nearest populated place. Nearness is planar in degrees, the same
// approximation other offline reverse geocoders use; the optional distance
// limit is checked on the sphere.
package geocode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/quadtree"

	apperrors "walkcli/internal/errors"
	"walkcli/pkg/contracts/domain"
)

// Geocoder resolves one coordinate pair to a place
type Geocoder interface {
	Lookup(ctx context.Context, latitude, longitude float64) (domain.Location, error)
}

// Place is one populated place of the index
type Place struct {
	Name      string
	Admin1    string
	Country   string
	Latitude  float64
	Longitude float64
}

// Point implements orb.Pointer
func (p *Place) Point() orb.Point {
	return orb.Point{p.Longitude, p.Latitude}
}

// Index is an in-memory nearest-place index
type Index struct {
	tree          *quadtree.Quadtree
	size          int
	skipped       int
	maxDistanceKm float64
}

var worldBound = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// NewIndex builds an index over places.
// Places the tree cannot hold are skipped and counted.
// A positive maxDistanceKm rejects lookups farther than that from any place.
func NewIndex(places []Place, maxDistanceKm float64) *Index {
	idx := &Index{
		tree:          quadtree.New(worldBound),
		maxDistanceKm: maxDistanceKm,
	}
	for i := range places {
		if !validCoordinate(places[i].Latitude, places[i].Longitude) {
			idx.skipped++
			continue
		}
		if err := idx.tree.Add(&places[i]); err != nil {
			idx.skipped++
			continue
		}
		idx.size++
	}
	return idx
}

// Len returns the number of indexed places
func (idx *Index) Len() int {
	return idx.size
}

// Skipped returns the number of places left out of the index
func (idx *Index) Skipped() int {
	return idx.skipped
}

// Lookup returns the nearest place to the coordinate
func (idx *Index) Lookup(_ context.Context, latitude, longitude float64) (domain.Location, error) {
	if !validCoordinate(latitude, longitude) {
		return domain.Location{}, apperrors.NewEnrichmentError(latitude, longitude,
			fmt.Errorf("coordinate out of range"))
	}

	query := orb.Point{longitude, latitude}
	found := idx.tree.Find(query)
	if found == nil {
		return domain.Location{}, apperrors.NewEnrichmentError(latitude, longitude,
			fmt.Errorf("index is empty"))
	}

	place := found.(*Place)
	if idx.maxDistanceKm > 0 {
		km := geo.Distance(query, place.Point()) / 1000
		if km > idx.maxDistanceKm {
			return domain.Location{}, apperrors.NewEnrichmentError(latitude, longitude,
				fmt.Errorf("nearest place %s is %.1f km away", place.Name, km))
		}
	}

	return domain.Location{
		Locality: place.Name,
		Region:   place.Admin1,
		Country:  place.Country,
	}, nil
}

func validCoordinate(latitude, longitude float64) bool {
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return false
	}
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
}

// LoadGeoNames loads a GeoNames cities dump and an optional admin1 code table
func LoadGeoNames(citiesPath, admin1Path string, maxDistanceKm float64) (*Index, error) {
	admin1 := map[string]string{}
	if admin1Path != "" {
		f, err := os.Open(admin1Path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, apperrors.NewStorageError("open admin1 codes", err)
			}
		} else {
			defer f.Close()
			if admin1, err = ParseAdmin1Codes(f); err != nil {
				return nil, err
			}
		}
	}

	f, err := os.Open(citiesPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("GeoNames cities file", citiesPath)
		}
		return nil, apperrors.NewStorageError("open GeoNames cities file", err)
	}
	defer f.Close()

	places, err := ParseCities(f, admin1)
	if err != nil {
		return nil, err
	}
	return NewIndex(places, maxDistanceKm), nil
}

// GeoNames column positions of the cities dump
const (
	colName        = 1
	colLatitude    = 4
	colLongitude   = 5
	colCountryCode = 8
	colAdmin1Code  = 10
	minCityColumns = 11
)

// ParseCities reads tab-separated GeoNames city rows.
// admin1 maps "CC.code" keys to region names.
func ParseCities(r io.Reader, admin1 map[string]string) ([]Place, error) {
	var places []Place
	scanner := newScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < minCityColumns {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("cities line %d has %d columns", line, len(fields)), nil)
		}

		lat, err := strconv.ParseFloat(fields[colLatitude], 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("cities line %d latitude", line), err)
		}
		lon, err := strconv.ParseFloat(fields[colLongitude], 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("cities line %d longitude", line), err)
		}

		country := fields[colCountryCode]
		places = append(places, Place{
			Name:      fields[colName],
			Admin1:    admin1[country+"."+fields[colAdmin1Code]],
			Country:   country,
			Latitude:  lat,
			Longitude: lon,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("read cities", err)
	}
	return places, nil
}

// ParseAdmin1Codes reads admin1CodesASCII rows: "AU.02<TAB>New South Wales<TAB>..."
func ParseAdmin1Codes(r io.Reader) (map[string]string, error) {
	codes := make(map[string]string)
	scanner := newScanner(r)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		code, rest, ok := strings.Cut(text, "\t")
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(rest, "\t")
		codes[code] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("read admin1 codes", err)
	}
	return codes, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}
