// Package geo provides approximate, prefix-bucketed geocoding for UK
// postcodes. The goal is map display, not geographic precision: a
// postcode's 1-2 letter outward prefix maps to a regional centroid, and
// a deterministic jitter derived from the full postcode spreads
// co-located markers without breaking reproducibility between calls.
package geo

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// Point is an approximate coordinate. Approximate is true when the
// prefix missed the table and the wide national fallback applied, so
// callers can render "roughly here" differently from "this region".
type Point struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Approximate bool    `json:"approximate"`
}

// centroid of an outward-code region.
type centroid struct {
	lat, lon float64
}

// Geocoder resolves postcodes against a fixed prefix table.
type Geocoder struct {
	centroids map[string]centroid
}

// prefix centroids for the covered regions (midlands-centric, matching
// the register coverage).
var defaultCentroids = map[string]centroid{
	"LE": {52.63, -1.13}, // Leicester
	"NG": {52.95, -1.15}, // Nottingham
	"DE": {52.92, -1.55}, // Derby
	"CV": {52.48, -1.50}, // Coventry
	"NN": {52.24, -0.90}, // Northampton
	"PE": {52.57, -0.24}, // Peterborough
	"MK": {52.04, -0.76}, // Milton Keynes
	"WS": {52.58, -1.98}, // Walsall
	"DY": {52.51, -2.08}, // Dudley
	"B":  {52.48, -1.89}, // Birmingham
	"WR": {52.19, -2.22}, // Worcester
	"OX": {51.75, -1.25}, // Oxford
	"CB": {52.20, 0.12},  // Cambridge
}

// fallback is the wide-region national default for unknown prefixes.
var fallback = centroid{52.5, -1.3}

const (
	hitJitter  = 0.05 // degrees either side of a known centroid
	missJitter = 0.5  // much wider spread marks "unknown"
)

// New builds a geocoder over the default prefix table.
func New() *Geocoder {
	return &Geocoder{centroids: defaultCentroids}
}

// Geocode maps a postcode to an approximate point. ok is false when the
// postcode is empty after normalization. Repeated calls on the same
// input always return the identical point: the jitter is a pure function
// of the normalized postcode, not a random source.
func (g *Geocoder) Geocode(postcode string) (Point, bool) {
	pc := normalize(postcode)
	if pc == "" {
		return Point{}, false
	}

	dLat, dLon := jitter(pc)

	if c, ok := g.centroids[outwardPrefix(pc)]; ok {
		return Point{
			Lat: c.lat + dLat*hitJitter,
			Lon: c.lon + dLon*hitJitter,
		}, true
	}
	return Point{
		Lat:         fallback.lat + dLat*missJitter,
		Lon:         fallback.lon + dLon*missJitter,
		Approximate: true,
	}, true
}

// normalize uppercases and strips spacing so "le1 1aa" and "LE1 1AA"
// land on the same point.
func normalize(postcode string) string {
	var b strings.Builder
	for _, r := range postcode {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// outwardPrefix returns the leading 1-2 letters of the outward code.
func outwardPrefix(pc string) string {
	n := 0
	for n < len(pc) && n < 2 && pc[n] >= 'A' && pc[n] <= 'Z' {
		n++
	}
	return pc[:n]
}

// jitter derives two offsets in [-1, 1] from the postcode via FNV-64a,
// one from each 32-bit half of the hash.
func jitter(pc string) (float64, float64) {
	h := fnv.New64a()
	h.Write([]byte(pc))
	sum := h.Sum64()

	hi := float64(uint32(sum>>32)) / float64(1<<32) // [0,1)
	lo := float64(uint32(sum)) / float64(1<<32)
	return hi*2 - 1, lo*2 - 1
}
